package importer

import (
    "context"
    "errors"
    "fmt"

    "orderdesk/internal/adapters/routing"
    "orderdesk/internal/services/persist"
)

var (
    ErrStorageNotConfigured = errors.New("storage is not configured")
    ErrInvalidDateRange     = errors.New("invalid date range")
)

// StageError records the pipeline stage a run failed in.
type StageError struct {
    Stage Stage
    Err   error
}

func (e *StageError) Error() string {
    return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
    return e.Err
}

// Error codes reported in ImportRunResult.ErrorDetails.
const (
    ErrCodeConfig         = "CONFIG"
    ErrCodeValidation     = "VALIDATION"
    ErrCodeHTTP           = "HTTP"
    ErrCodeDecode         = "DECODE"
    ErrCodeProvider       = "PROVIDER"
    ErrCodeBatch          = "COMPLETION_BATCH"
    ErrCodeMissingOrderNo = "MISSING_ORDER_NO"
    ErrCodePersist        = "PERSIST"
    ErrCodeCancelled      = "CANCELLED"
    ErrCodeUnknown        = "UNKNOWN"
)

// IsConfigError reports whether err comes from missing configuration.
func IsConfigError(err error) bool {
    return errors.Is(err, routing.ErrMissingAPIKey) || errors.Is(err, ErrStorageNotConfigured)
}

// ErrorCode maps an error to its stable code. The most specific cause wins.
func ErrorCode(err error) string {
    var (
        he *routing.HTTPError
        de *routing.DecodeError
        pe *routing.ProviderError
        be *routing.BatchError
        ce *routing.RecordError
        re *persist.RecordError
    )
    switch {
    case err == nil:
        return ""
    case IsConfigError(err):
        return ErrCodeConfig
    case errors.Is(err, ErrInvalidDateRange):
        return ErrCodeValidation
    case errors.Is(err, persist.ErrMissingOrderNo):
        return ErrCodeMissingOrderNo
    case errors.As(err, &re):
        return ErrCodePersist
    case errors.As(err, &ce):
        return ErrCodeDecode
    case errors.As(err, &he):
        return ErrCodeHTTP
    case errors.As(err, &de):
        return ErrCodeDecode
    case errors.As(err, &pe):
        return ErrCodeProvider
    case errors.As(err, &be):
        return ErrCodeBatch
    case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
        return ErrCodeCancelled
    default:
        return ErrCodeUnknown
    }
}
