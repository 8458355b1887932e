// Package memory is an in-process store for dry runs and tests.
package memory

import (
    "context"
    "sort"
    "strconv"
    "sync"

    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
)

// Store keeps work orders and import runs in memory. It honours the same
// uniqueness rule on order numbers as the Postgres adapter.
type Store struct {
    mu         sync.RWMutex
    workOrders map[string]domain.WorkOrder
    runs       []domain.ImportRunResult
    seq        int
}

var (
    _ ports.WorkOrderRepository = (*Store)(nil)
    _ ports.RunLogRepository    = (*Store)(nil)
)

func New() *Store {
    return &Store{workOrders: make(map[string]domain.WorkOrder)}
}

func (s *Store) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
    if err := ctx.Err(); err != nil { return false, err }
    s.mu.RLock()
    defer s.mu.RUnlock()
    _, ok := s.workOrders[orderNo]
    return ok, nil
}

func (s *Store) Insert(ctx context.Context, wo domain.WorkOrder) (bool, error) {
    if err := ctx.Err(); err != nil { return false, err }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.workOrders[wo.OrderNo]; ok {
        return false, nil
    }
    s.seq++
    wo.ID = strconv.Itoa(s.seq)
    wo.CreatedAt = wo.Timestamp
    wo.UpdatedAt = wo.Timestamp
    s.workOrders[wo.OrderNo] = wo
    return true, nil
}

func (s *Store) GetByOrderNo(ctx context.Context, orderNo string) (domain.WorkOrder, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    wo, ok := s.workOrders[orderNo]
    if !ok {
        return domain.WorkOrder{}, ports.ErrNotFound
    }
    return wo, nil
}

// SetStatus stands in for the review UI changing an order's workflow state.
func (s *Store) SetStatus(orderNo string, status domain.WorkOrderStatus) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if wo, ok := s.workOrders[orderNo]; ok {
        wo.Status = status
        s.workOrders[orderNo] = wo
    }
}

// WorkOrders returns all stored orders sorted by order number.
func (s *Store) WorkOrders() []domain.WorkOrder {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]domain.WorkOrder, 0, len(s.workOrders))
    for _, wo := range s.workOrders {
        out = append(out, wo)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].OrderNo < out[j].OrderNo })
    return out
}

func (s *Store) AppendRun(ctx context.Context, run domain.ImportRunResult) error {
    if err := ctx.Err(); err != nil { return err }
    run.Orders = nil
    s.mu.Lock()
    defer s.mu.Unlock()
    s.runs = append(s.runs, run)
    return nil
}

func (s *Store) LatestRun(ctx context.Context) (domain.ImportRunResult, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    if len(s.runs) == 0 {
        return domain.ImportRunResult{}, false, nil
    }
    return s.runs[len(s.runs)-1], true, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.ImportRunResult, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []domain.ImportRunResult
    for i := len(s.runs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
        out = append(out, s.runs[i])
    }
    return out, nil
}
