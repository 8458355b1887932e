// Package routing talks to the route provider's search and completion APIs.
package routing

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "log/slog"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/jonboulle/clockwork"

    "orderdesk/internal/retry"
)

const (
    DefaultMaxPages    = 50
    DefaultBatchSize   = 500
    DefaultConcurrency = 5

    maxErrorBody = 512
)

type Options struct {
    BaseURL    string
    APIKey     string
    HTTPClient *http.Client
    Retry      retry.Policy

    // Courtesy delays between sequential calls to the provider.
    PageDelay  time.Duration
    BatchDelay time.Duration

    MaxPages    int
    BatchSize   int
    Concurrency int

    // Clock paces the courtesy delays. Defaults to the real clock.
    Clock  clockwork.Clock
    Logger *slog.Logger
}

type Client struct {
    baseURL     string
    apiKey      string
    http        *http.Client
    retry       retry.Policy
    pageDelay   time.Duration
    batchDelay  time.Duration
    maxPages    int
    batchSize   int
    concurrency int
    clock       clockwork.Clock
    logger      *slog.Logger
}

func New(opts Options) *Client {
    c := &Client{
        baseURL:     strings.TrimRight(opts.BaseURL, "/"),
        apiKey:      opts.APIKey,
        http:        opts.HTTPClient,
        retry:       opts.Retry,
        pageDelay:   opts.PageDelay,
        batchDelay:  opts.BatchDelay,
        maxPages:    opts.MaxPages,
        batchSize:   opts.BatchSize,
        concurrency: opts.Concurrency,
        clock:       opts.Clock,
        logger:      opts.Logger,
    }
    if c.http == nil { c.http = &http.Client{Timeout: 60 * time.Second} }
    if c.maxPages <= 0 { c.maxPages = DefaultMaxPages }
    if c.batchSize <= 0 || c.batchSize > DefaultBatchSize { c.batchSize = DefaultBatchSize }
    if c.concurrency <= 0 { c.concurrency = DefaultConcurrency }
    if c.clock == nil { c.clock = clockwork.NewRealClock() }
    if c.logger == nil { c.logger = slog.Default() }
    if c.retry.Retryable == nil { c.retry.Retryable = IsTransient }
    if c.retry.Logger == nil { c.retry.Logger = c.logger }
    return c
}

// Configured reports whether the client has credentials to call the provider.
func (c *Client) Configured() error {
    if c.apiKey == "" {
        return ErrMissingAPIKey
    }
    return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
    if query == nil { query = url.Values{} }
    query.Set("key", c.apiKey)
    return c.baseURL + "/" + path + "?" + query.Encode()
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, op string, out any) error {
    resp, err := c.http.Do(req)
    if err != nil {
        return fmt.Errorf("%s: %w", op, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
        return &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return &DecodeError{Op: op, Err: err}
    }
    return nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body any, out any) error {
    payload, err := json.Marshal(body)
    if err != nil {
        return err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(payload))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Accept", "application/json")
    return c.do(req, op, out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
    if err != nil {
        return err
    }
    req.Header.Set("Accept", "application/json")
    return c.do(req, op, out)
}

// pause waits d on the client's clock or until ctx is done.
func (c *Client) pause(ctx context.Context, d time.Duration) error {
    if d <= 0 {
        return ctx.Err()
    }
    t := c.clock.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.Chan():
        return nil
    }
}
