// Package retry wraps remote calls in exponential backoff.
package retry

import (
    "context"
    "errors"
    "log/slog"
    "time"

    goretry "github.com/sethvargo/go-retry"
)

// Policy controls how many times a call is retried after its first attempt.
// With BaseDelay 2s and MaxRetries 3 the waits are 2s, 4s and 8s.
type Policy struct {
    MaxRetries int
    BaseDelay  time.Duration
    // Retryable reports whether err is transient. Nil retries everything
    // except context cancellation.
    Retryable func(error) bool
    Logger    *slog.Logger
}

func Default() Policy {
    return Policy{MaxRetries: 3, BaseDelay: 2 * time.Second}
}

// Do calls fn until it succeeds, returns a permanent error, or the policy
// runs out of retries. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
    maxRetries := p.maxRetries()
    backoff := p.Backoff()

    attempt := 0
    return goretry.Do(ctx, backoff, func(ctx context.Context) error {
        attempt++
        err := fn(ctx)
        if err == nil {
            return nil
        }
        if !p.retryable(err) {
            return err
        }
        if p.Logger != nil && attempt <= maxRetries {
            p.Logger.Warn("remote call failed, retrying", "op", op, "attempt", attempt, "error", err)
        }
        return goretry.RetryableError(err)
    })
}

// Backoff returns a fresh wait schedule: BaseDelay, doubled after each
// retry, stopping after MaxRetries waits.
func (p Policy) Backoff() goretry.Backoff {
    base := p.BaseDelay
    if base <= 0 { base = time.Millisecond }
    return goretry.WithMaxRetries(uint64(p.maxRetries()), goretry.NewExponential(base))
}

func (p Policy) maxRetries() int {
    if p.MaxRetries < 0 {
        return 0
    }
    return p.MaxRetries
}

func (p Policy) retryable(err error) bool {
    if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
        return false
    }
    if p.Retryable == nil {
        return true
    }
    return p.Retryable(err)
}
