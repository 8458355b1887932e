package routing

import (
    "context"
    "encoding/json"
    "net/url"

    "golang.org/x/sync/errgroup"

    "orderdesk/internal/batch"
    "orderdesk/internal/domain"
    "orderdesk/internal/retry"
)

const opCompletion = "get_completion_details"

type CompletionResult struct {
    Orders  []domain.CompletionRecord
    Batches int
    Errors  []*BatchError
    // Invalid holds records dropped from successful batches.
    Invalid []*RecordError
}

type completionResponse struct {
    Success *bool             `json:"success"`
    Orders  []json.RawMessage `json:"orders"`
    Error   string            `json:"error"`
}

// BatchOutcome is the result of one completion batch: either orders, possibly
// with some undecodable records, or an error.
type BatchOutcome struct {
    Batch   int
    Orders  []domain.CompletionRecord
    Invalid []*RecordError
    Err     *BatchError
}

// FetchCompletionDetails fetches completion details in provider-sized batches.
// A failed batch is recorded and the others still run. An error is returned
// only when nothing was retrieved and at least one batch failed.
func (c *Client) FetchCompletionDetails(ctx context.Context, orderNos []string) (CompletionResult, error) {
    if err := c.Configured(); err != nil {
        return CompletionResult{}, err
    }
    if len(orderNos) == 0 {
        return CompletionResult{}, nil
    }

    batches := batch.Chunk(orderNos, c.batchSize)
    outcomes := make([]BatchOutcome, len(batches))

    var g errgroup.Group
    g.SetLimit(c.concurrency)
    for i, nos := range batches {
        n := i + 1
        if i > 0 {
            if err := c.pause(ctx, c.batchDelay); err != nil {
                for j := i; j < len(batches); j++ {
                    outcomes[j] = BatchOutcome{Batch: j + 1, Err: &BatchError{Batch: j + 1, OrderCount: len(batches[j]), Err: err}}
                }
                break
            }
        }
        g.Go(func() error {
            outcomes[i] = c.fetchBatch(ctx, n, nos)
            return nil
        })
    }
    _ = g.Wait()

    res := ReduceOutcomes(outcomes)
    for _, be := range res.Errors {
        c.logger.Warn("completion batch failed", "batch", be.Batch, "orders", be.OrderCount, "error", be.Err)
    }
    for _, re := range res.Invalid {
        c.logger.Warn("completion record skipped", "batch", re.Batch, "index", re.Index, "order_no", re.OrderNo, "error", re.Err)
    }
    c.logger.Info("completion details fetched", "requested", len(orderNos), "batches", res.Batches, "orders", len(res.Orders), "failed_batches", len(res.Errors), "invalid_records", len(res.Invalid))

    if len(res.Orders) == 0 && len(res.Errors) > 0 {
        return res, res.Errors[0]
    }
    return res, nil
}

func (c *Client) fetchBatch(ctx context.Context, n int, orderNos []string) BatchOutcome {
    query := url.Values{}
    for _, no := range orderNos {
        query.Add("orderNo", no)
    }
    var resp completionResponse
    err := retry.Do(ctx, c.retry, opCompletion, func(ctx context.Context) error {
        resp = completionResponse{}
        if err := c.getJSON(ctx, opCompletion, opCompletion, query, &resp); err != nil {
            return err
        }
        if resp.Success != nil && !*resp.Success {
            return &ProviderError{Op: opCompletion, Message: resp.Error}
        }
        return nil
    })
    if err != nil {
        return BatchOutcome{Batch: n, Err: &BatchError{Batch: n, OrderCount: len(orderNos), Err: err}}
    }
    out := BatchOutcome{Batch: n, Orders: make([]domain.CompletionRecord, 0, len(resp.Orders))}
    for i, raw := range resp.Orders {
        var rec domain.CompletionRecord
        if err := json.Unmarshal(raw, &rec); err != nil {
            out.Invalid = append(out.Invalid, &RecordError{Op: opCompletion, Batch: n, Index: i, OrderNo: peekOrderNo(raw), Err: err})
            continue
        }
        out.Orders = append(out.Orders, rec)
    }
    return out
}

// peekOrderNo recovers the order number of a record that failed to decode, if it can.
func peekOrderNo(raw json.RawMessage) string {
    var head struct {
        OrderNo string `json:"orderNo"`
    }
    if json.Unmarshal(raw, &head) != nil {
        return ""
    }
    return head.OrderNo
}

// ReduceOutcomes folds batch outcomes, in batch order, into one result.
func ReduceOutcomes(outcomes []BatchOutcome) CompletionResult {
    var res CompletionResult
    for _, o := range outcomes {
        res.Batches++
        if o.Err != nil {
            res.Errors = append(res.Errors, o.Err)
            continue
        }
        res.Orders = append(res.Orders, o.Orders...)
        res.Invalid = append(res.Invalid, o.Invalid...)
    }
    return res
}
