package ports

import (
    "context"
    "time"

    "orderdesk/internal/domain"
)

type ImportRequest struct {
    StartDate string
    EndDate   string
    Statuses  []string
    Persist   bool
    AfterTag  string
    Trigger   domain.RunTrigger
}

// Importer runs one ingestion. It always returns a result, even on failure.
type Importer interface {
    Run(ctx context.Context, req ImportRequest) domain.ImportRunResult
}

// Schedule reports when the background trigger fires next.
type Schedule interface {
    NextRun() time.Time
    Interval() string
}
