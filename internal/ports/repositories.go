package ports

import (
    "context"

    "orderdesk/internal/domain"
)

// WorkOrderRepository stores work orders keyed by their order number.
type WorkOrderRepository interface {
    ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error)
    // Insert adds a new row. inserted is false when a row with the same
    // order number already exists; the existing row is left untouched.
    Insert(ctx context.Context, wo domain.WorkOrder) (inserted bool, err error)
    GetByOrderNo(ctx context.Context, orderNo string) (domain.WorkOrder, error)
}

// RunLogRepository is the append-only log of import runs.
type RunLogRepository interface {
    AppendRun(ctx context.Context, run domain.ImportRunResult) error
    LatestRun(ctx context.Context) (run domain.ImportRunResult, found bool, err error)
    ListRuns(ctx context.Context, limit int) ([]domain.ImportRunResult, error)
}

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }
