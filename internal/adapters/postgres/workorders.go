package postgres

import (
    "context"
    "errors"

    "github.com/jackc/pgx/v5"

    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
)

// WorkOrderRepository
func (db *DB) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
    var exists bool
    err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM work_orders WHERE order_no = $1)`, orderNo).Scan(&exists)
    return exists, err
}

// Insert never updates: a conflicting order number leaves the reviewed row as it is.
func (db *DB) Insert(ctx context.Context, wo domain.WorkOrder) (bool, error) {
    var id string
    err := db.Pool.QueryRow(ctx, `
        INSERT INTO work_orders (
            order_no, status, search_response, completion_response,
            driver_name, location_name, end_time, "timestamp", fetched_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (order_no) DO NOTHING
        RETURNING id
    `,
        wo.OrderNo, string(wo.Status), nullJSON(wo.SearchResponse), nullJSON(wo.CompletionResponse),
        wo.DriverName, wo.LocationName, wo.EndTime, wo.Timestamp, wo.FetchedAt,
    ).Scan(&id)
    if errors.Is(err, pgx.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func (db *DB) GetByOrderNo(ctx context.Context, orderNo string) (domain.WorkOrder, error) {
    var (
        wo                 domain.WorkOrder
        status             string
        search, completion []byte
    )
    err := db.Pool.QueryRow(ctx, `
        SELECT id::text, order_no, status, search_response, completion_response,
               driver_name, location_name, end_time, qc_notes, resolution_notes,
               "timestamp", fetched_at, created_at, updated_at,
               approved_by, approved_at, flagged_by, flagged_at,
               resolved_by, resolved_at, rejected_by, rejected_at
        FROM work_orders
        WHERE order_no = $1
    `, orderNo).Scan(
        &wo.ID, &wo.OrderNo, &status, &search, &completion,
        &wo.DriverName, &wo.LocationName, &wo.EndTime, &wo.QCNotes, &wo.ResolutionNotes,
        &wo.Timestamp, &wo.FetchedAt, &wo.CreatedAt, &wo.UpdatedAt,
        &wo.Approved.By, &wo.Approved.At, &wo.Flagged.By, &wo.Flagged.At,
        &wo.Resolved.By, &wo.Resolved.At, &wo.Rejected.By, &wo.Rejected.At,
    )
    if errors.Is(err, pgx.ErrNoRows) {
        return domain.WorkOrder{}, ports.ErrNotFound
    }
    if err != nil {
        return domain.WorkOrder{}, err
    }
    wo.Status = domain.WorkOrderStatus(status)
    wo.SearchResponse = search
    wo.CompletionResponse = completion
    return wo, nil
}

func nullJSON(b []byte) any {
    if len(b) == 0 { return nil }
    return string(b)
}
