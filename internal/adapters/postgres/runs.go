package postgres

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/jackc/pgx/v5"

    "orderdesk/internal/domain"
)

// RunLogRepository

// AppendRun stores the run summary. Orders are dropped; the log is a summary only.
func (db *DB) AppendRun(ctx context.Context, run domain.ImportRunResult) error {
    run.Orders = nil
    doc, err := json.Marshal(run)
    if err != nil {
        return fmt.Errorf("encode run %s: %w", run.ID, err)
    }
    _, err = db.Pool.Exec(ctx, `
        INSERT INTO import_runs (
            id, success, stage, trigger, start_date, end_date,
            total_fetched, imported, duplicates, errors, batches_processed,
            result, ran_at, duration_ms
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `,
        run.ID, run.Success, run.Stage, string(run.Trigger), run.DateRange.StartDate, run.DateRange.EndDate,
        run.TotalFetched, run.Imported, run.Duplicates, run.Errors, run.BatchesProcessed,
        string(doc), run.Timestamp, run.DurationMs,
    )
    return err
}

func (db *DB) LatestRun(ctx context.Context) (domain.ImportRunResult, bool, error) {
    var doc []byte
    err := db.Pool.QueryRow(ctx, `SELECT result FROM import_runs ORDER BY ran_at DESC, created_at DESC LIMIT 1`).Scan(&doc)
    if errors.Is(err, pgx.ErrNoRows) {
        return domain.ImportRunResult{}, false, nil
    }
    if err != nil {
        return domain.ImportRunResult{}, false, err
    }
    var run domain.ImportRunResult
    if err := json.Unmarshal(doc, &run); err != nil {
        return domain.ImportRunResult{}, false, fmt.Errorf("decode run: %w", err)
    }
    return run, true, nil
}

// ListRuns returns up to limit runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]domain.ImportRunResult, error) {
    rows, err := db.Pool.Query(ctx, `SELECT result FROM import_runs ORDER BY ran_at DESC, created_at DESC LIMIT $1`, limit)
    if err != nil {
        return nil, err
    }
    docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
    if err != nil {
        return nil, err
    }
    runs := make([]domain.ImportRunResult, 0, len(docs))
    for _, doc := range docs {
        var run domain.ImportRunResult
        if err := json.Unmarshal(doc, &run); err != nil {
            return nil, fmt.Errorf("decode run: %w", err)
        }
        runs = append(runs, run)
    }
    return runs, nil
}
