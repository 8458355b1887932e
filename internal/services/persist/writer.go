// Package persist writes merged orders into the work order store.
package persist

import (
    "context"
    "errors"
    "fmt"
    "log/slog"

    "github.com/jonboulle/clockwork"
    "golang.org/x/sync/errgroup"

    "orderdesk/internal/batch"
    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
)

const (
    DefaultBatchSize   = 50
    DefaultConcurrency = 4
)

var ErrMissingOrderNo = errors.New("order has no order number")

// RecordError is a failed write for one order.
type RecordError struct {
    OrderNo string
    Err     error
}

func (e *RecordError) Error() string {
    return fmt.Sprintf("order %q: %v", e.OrderNo, e.Err)
}

func (e *RecordError) Unwrap() error {
    return e.Err
}

type UpsertResult struct {
    Total      int
    Imported   int
    Duplicates int
    Failed     int
    Batches    int
    Errors     []*RecordError
}

type Writer struct {
    repo        ports.WorkOrderRepository
    clock       clockwork.Clock
    logger      *slog.Logger
    batchSize   int
    concurrency int
}

type Option func(*Writer)

func WithClock(c clockwork.Clock) Option { return func(w *Writer) { w.clock = c } }
func WithLogger(l *slog.Logger) Option   { return func(w *Writer) { w.logger = l } }
func WithBatchSize(n int) Option         { return func(w *Writer) { if n > 0 { w.batchSize = n } } }
func WithConcurrency(n int) Option       { return func(w *Writer) { if n > 0 { w.concurrency = n } } }

func New(repo ports.WorkOrderRepository, opts ...Option) *Writer {
    w := &Writer{
        repo:        repo,
        clock:       clockwork.NewRealClock(),
        logger:      slog.Default(),
        batchSize:   DefaultBatchSize,
        concurrency: DefaultConcurrency,
    }
    for _, opt := range opts {
        opt(w)
    }
    return w
}

type batchOutcome struct {
    imported   int
    duplicates int
    errors     []*RecordError
}

// Upsert inserts orders that are not yet stored. Existing rows are counted
// as duplicates and never modified. A failing record is reported and does
// not stop its batch or any other batch.
func (w *Writer) Upsert(ctx context.Context, orders []domain.MergedOrder) UpsertResult {
    batches := batch.Chunk(orders, w.batchSize)
    outcomes := make([]batchOutcome, len(batches))

    var g errgroup.Group
    g.SetLimit(w.concurrency)
    for i, part := range batches {
        g.Go(func() error {
            outcomes[i] = w.writeBatch(ctx, part)
            return nil
        })
    }
    _ = g.Wait()

    res := UpsertResult{Total: len(orders), Batches: len(batches)}
    for _, o := range outcomes {
        res.Imported += o.imported
        res.Duplicates += o.duplicates
        res.Failed += len(o.errors)
        res.Errors = append(res.Errors, o.errors...)
    }
    w.logger.Info("work orders persisted", "total", res.Total, "imported", res.Imported, "duplicates", res.Duplicates, "failed", res.Failed, "batches", res.Batches)
    return res
}

func (w *Writer) writeBatch(ctx context.Context, orders []domain.MergedOrder) batchOutcome {
    var out batchOutcome
    for _, m := range orders {
        inserted, err := w.writeOne(ctx, m)
        switch {
        case err != nil:
            out.errors = append(out.errors, &RecordError{OrderNo: m.OrderNo(), Err: err})
            w.logger.Warn("work order write failed", "order_no", m.OrderNo(), "error", err)
        case inserted:
            out.imported++
        default:
            out.duplicates++
        }
    }
    return out
}

func (w *Writer) writeOne(ctx context.Context, m domain.MergedOrder) (bool, error) {
    no := m.OrderNo()
    if no == "" {
        return false, ErrMissingOrderNo
    }
    exists, err := w.repo.ExistsByOrderNo(ctx, no)
    if err != nil {
        return false, fmt.Errorf("lookup: %w", err)
    }
    if exists {
        return false, nil
    }
    inserted, err := w.repo.Insert(ctx, domain.NewWorkOrder(m, w.clock.Now().UTC()))
    if err != nil {
        return false, fmt.Errorf("insert: %w", err)
    }
    return inserted, nil
}
