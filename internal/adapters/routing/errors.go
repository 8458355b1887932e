package routing

import (
    "errors"
    "fmt"
    "net/http"
)

// ErrMissingAPIKey is a configuration error and is never retried.
var ErrMissingAPIKey = errors.New("routing API key is not configured")

// HTTPError is returned when the provider answers with a non-2xx status.
type HTTPError struct {
    Op         string
    StatusCode int
    Body       string
}

func (e *HTTPError) Error() string {
    if e.Body == "" {
        return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
    }
    return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// DecodeError is returned when a response body is not the expected JSON.
type DecodeError struct {
    Op  string
    Err error
}

func (e *DecodeError) Error() string {
    return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
    return e.Err
}

// ProviderError is returned when the provider reports success=false.
type ProviderError struct {
    Op      string
    Message string
}

func (e *ProviderError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("%s: provider reported failure", e.Op)
    }
    return fmt.Sprintf("%s: provider reported failure: %s", e.Op, e.Message)
}

// BatchError describes one completion batch that could not be fetched.
type BatchError struct {
    Batch      int
    OrderCount int
    Err        error
}

func (e *BatchError) Error() string {
    return fmt.Sprintf("completion batch %d (%d orders): %v", e.Batch, e.OrderCount, e.Err)
}

func (e *BatchError) Unwrap() error {
    return e.Err
}

// RecordError is one record in an otherwise valid response that could not be
// decoded. The rest of its batch is kept.
type RecordError struct {
    Op      string
    Batch   int
    Index   int
    OrderNo string
    Err     error
}

func (e *RecordError) Error() string {
    if e.OrderNo == "" {
        return fmt.Sprintf("%s: batch %d record %d: %v", e.Op, e.Batch, e.Index, e.Err)
    }
    return fmt.Sprintf("%s: batch %d record %d (order %q): %v", e.Op, e.Batch, e.Index, e.OrderNo, e.Err)
}

func (e *RecordError) Unwrap() error {
    return e.Err
}

// IsTransient reports whether a failed call is worth retrying.
// Network failures, 5xx, 408, 429, malformed bodies and provider-side
// failures are transient; configuration errors and other 4xx are not.
func IsTransient(err error) bool {
    if err == nil || errors.Is(err, ErrMissingAPIKey) {
        return false
    }
    var he *HTTPError
    if errors.As(err, &he) {
        return he.StatusCode >= 500 ||
            he.StatusCode == http.StatusTooManyRequests ||
            he.StatusCode == http.StatusRequestTimeout
    }
    return true
}
