package retry

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
    calls := 0
    err := Do(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Millisecond}, "page", func(context.Context) error {
        calls++
        if calls < 3 { return errFlaky }
        return nil
    })
    require.NoError(t, err)
    assert.Equal(t, 3, calls)
}

func TestDo_StopsAfterMaxRetries(t *testing.T) {
    calls := 0
    err := Do(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Millisecond}, "page", func(context.Context) error {
        calls++
        return errFlaky
    })
    require.ErrorIs(t, err, errFlaky)
    assert.Equal(t, 4, calls, "one attempt plus three retries")
}

func TestDo_PermanentErrorIsNotRetried(t *testing.T) {
    errConfig := errors.New("missing key")
    calls := 0
    p := Policy{
        MaxRetries: 3,
        BaseDelay:  time.Millisecond,
        Retryable:  func(err error) bool { return !errors.Is(err, errConfig) },
    }
    err := Do(context.Background(), p, "page", func(context.Context) error {
        calls++
        return errConfig
    })
    require.ErrorIs(t, err, errConfig)
    assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    calls := 0
    err := Do(ctx, Policy{MaxRetries: 5, BaseDelay: time.Hour}, "page", func(context.Context) error {
        calls++
        cancel()
        return errFlaky
    })
    require.Error(t, err)
    assert.Equal(t, 1, calls)
}

func TestPolicy_BackoffDoubles(t *testing.T) {
    b := Default().Backoff()

    var waits []time.Duration
    for {
        d, stop := b.Next()
        if stop {
            break
        }
        waits = append(waits, d)
        require.Less(t, len(waits), 10, "backoff never stopped")
    }
    assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, waits)
}

func TestPolicy_BackoffIsFreshPerCall(t *testing.T) {
    p := Policy{MaxRetries: 2, BaseDelay: 100 * time.Millisecond}

    first, _ := p.Backoff().Next()
    again, _ := p.Backoff().Next()
    assert.Equal(t, 100*time.Millisecond, first)
    assert.Equal(t, 100*time.Millisecond, again)
}

func TestPolicy_ZeroRetriesNeverWaits(t *testing.T) {
    _, stop := Policy{MaxRetries: 0, BaseDelay: time.Second}.Backoff().Next()
    assert.True(t, stop)
}
