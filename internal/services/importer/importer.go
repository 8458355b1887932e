// Package importer drives one ingestion run from provider search through
// to the work order store.
package importer

import (
    "context"
    "errors"
    "log/slog"
    "time"

    "github.com/google/uuid"
    "github.com/jonboulle/clockwork"

    "orderdesk/internal/adapters/routing"
    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
    "orderdesk/internal/services/persist"
    "orderdesk/internal/services/reconcile"
)

type Stage string

const (
    StageValidating         Stage = "VALIDATING"
    StageFetchingSearch     Stage = "FETCHING_SEARCH"
    StageExtractingIDs      Stage = "EXTRACTING_IDS"
    StageFetchingCompletion Stage = "FETCHING_COMPLETION"
    StageMerging            Stage = "MERGING"
    StageFiltering          Stage = "FILTERING"
    StagePersisting         Stage = "PERSISTING"
    StageDone               Stage = "DONE"
    StageFailed             Stage = "FAILED"
)

// Provider is the routing provider as seen by the importer. Retries and
// courtesy delays live inside the implementation.
type Provider interface {
    Configured() error
    CollectAllPages(ctx context.Context, req routing.SearchRequest) (routing.SearchResult, error)
    FetchCompletionDetails(ctx context.Context, orderNos []string) (routing.CompletionResult, error)
}

type Options struct {
    Provider Provider
    // Writer may be nil; runs that ask to persist then fail with a config error.
    Writer *persist.Writer
    // Runs may be nil; results are then not logged.
    Runs     ports.RunLogRepository
    Statuses []string
    Clock    clockwork.Clock
    Logger   *slog.Logger
}

type Service struct {
    provider Provider
    writer   *persist.Writer
    runs     ports.RunLogRepository
    statuses []string
    clock    clockwork.Clock
    logger   *slog.Logger
}

var _ ports.Importer = (*Service)(nil)

func New(opts Options) *Service {
    s := &Service{
        provider: opts.Provider,
        writer:   opts.Writer,
        runs:     opts.Runs,
        statuses: opts.Statuses,
        clock:    opts.Clock,
        logger:   opts.Logger,
    }
    if len(s.statuses) == 0 { s.statuses = reconcile.DefaultStatuses }
    if s.clock == nil { s.clock = clockwork.NewRealClock() }
    if s.logger == nil { s.logger = slog.Default() }
    return s
}

// Run executes one import. It never returns an error: failures are reported
// in the result, which is also appended to the run log.
func (s *Service) Run(ctx context.Context, req ports.ImportRequest) domain.ImportRunResult {
    started := s.clock.Now()
    res := domain.ImportRunResult{
        ID:           uuid.NewString(),
        Trigger:      req.Trigger,
        DateRange:    domain.DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
        Timestamp:    started.UTC(),
        ErrorDetails: []domain.ErrorDetail{},
    }
    if res.Trigger == "" { res.Trigger = domain.TriggerManual }
    logger := s.logger.With("run_id", res.ID, "trigger", res.Trigger)
    logger.Info("import started", "start_date", req.StartDate, "end_date", req.EndDate, "persist", req.Persist)

    r := &run{Service: s, req: req, res: &res, logger: logger}
    if err := r.execute(ctx); err != nil {
        res.Stage = string(StageFailed)
        res.ConfigError = IsConfigError(err)
        detail := domain.ErrorDetail{Code: ErrorCode(err), Message: err.Error()}
        var se *StageError
        if errors.As(err, &se) {
            detail.Stage = string(se.Stage)
        }
        res.ErrorDetails = append(res.ErrorDetails, detail)
        logger.Error("import failed", "stage", detail.Stage, "code", detail.Code, "error", err)
    } else {
        res.Stage = string(StageDone)
    }
    res.Errors = len(res.ErrorDetails)
    res.Success = res.Stage == string(StageDone) && res.Errors == 0
    res.DurationMs = s.clock.Since(started).Milliseconds()

    logger.Info("import finished",
        "success", res.Success,
        "fetched", res.TotalFetched,
        "filtered", res.Filtered,
        "imported", res.Imported,
        "duplicates", res.Duplicates,
        "errors", res.Errors,
        "duration_ms", res.DurationMs,
    )
    s.record(ctx, res, logger)
    return res
}

func (s *Service) record(ctx context.Context, res domain.ImportRunResult, logger *slog.Logger) {
    if s.runs == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
    defer cancel()
    res.Orders = nil
    if err := s.runs.AppendRun(ctx, res); err != nil {
        logger.Error("failed to append run log", "error", err)
    }
}

type run struct {
    *Service
    req    ports.ImportRequest
    res    *domain.ImportRunResult
    logger *slog.Logger
}

func (r *run) enter(stage Stage, count int) {
    r.res.Stage = string(stage)
    r.logger.Info("import stage", "stage", stage, "count", count)
}

func (r *run) fail(stage Stage, err error) error {
    return &StageError{Stage: stage, Err: err}
}

func (r *run) execute(ctx context.Context) error {
    r.enter(StageValidating, 0)
    if err := r.provider.Configured(); err != nil {
        return r.fail(StageValidating, err)
    }
    if r.req.Persist && r.writer == nil {
        return r.fail(StageValidating, ErrStorageNotConfigured)
    }
    if err := ValidateDates(r.req.StartDate, r.req.EndDate); err != nil {
        return r.fail(StageValidating, err)
    }

    r.enter(StageFetchingSearch, 0)
    search, err := r.provider.CollectAllPages(ctx, routing.SearchRequest{
        From:     r.req.StartDate,
        To:       r.req.EndDate,
        AfterTag: r.req.AfterTag,
    })
    if err != nil {
        return r.fail(StageFetchingSearch, err)
    }
    r.res.TotalFetched = len(search.Orders)
    r.res.PagesFetched = search.Pages
    r.res.Truncated = search.Truncated
    r.res.ResumeAfterTag = search.ResumeAfterTag
    if len(search.Orders) == 0 {
        r.logger.Info("no orders in window", "pages", search.Pages)
        return nil
    }

    r.enter(StageExtractingIDs, len(search.Orders))
    orderNos := reconcile.ExtractOrderNumbers(search.Orders)
    if len(orderNos) == 0 {
        // Nothing can be joined or stored; hand back what the provider sent.
        merged := reconcile.Merge(search.Orders, nil)
        r.res.Filtered = len(merged)
        r.res.Orders = merged
        r.logger.Warn("search results carry no order numbers, skipping completion and persistence", "orders", len(search.Orders))
        return nil
    }

    r.enter(StageFetchingCompletion, len(orderNos))
    completion, err := r.provider.FetchCompletionDetails(ctx, orderNos)
    r.res.CompletionBatches = completion.Batches
    r.res.CompletionFetched = len(completion.Orders)
    if err != nil {
        return r.fail(StageFetchingCompletion, err)
    }
    // Partial: failed batches are reported, the rest carries on unmatched.
    for _, be := range completion.Errors {
        r.res.ErrorDetails = append(r.res.ErrorDetails, domain.ErrorDetail{
            Code:    ErrCodeBatch,
            Stage:   string(StageFetchingCompletion),
            Message: be.Error(),
        })
    }
    for _, re := range completion.Invalid {
        r.res.ErrorDetails = append(r.res.ErrorDetails, domain.ErrorDetail{
            Code:    ErrorCode(re),
            OrderNo: re.OrderNo,
            Stage:   string(StageFetchingCompletion),
            Message: re.Error(),
        })
    }

    r.enter(StageMerging, len(completion.Orders))
    merged := reconcile.Merge(search.Orders, reconcile.CreateCompletionMap(completion.Orders))

    r.enter(StageFiltering, len(merged))
    kept, hist := reconcile.FilterByStatus(merged, r.statusesFor())
    r.res.StatusHistogram = hist
    r.res.Filtered = len(kept)
    r.logger.Info("status distribution", "histogram", hist, "kept", len(kept), "allowed", r.statusesFor())

    if !r.req.Persist {
        r.res.Orders = kept
        return nil
    }

    r.enter(StagePersisting, len(kept))
    up := r.writer.Upsert(ctx, kept)
    r.res.Imported = up.Imported
    r.res.Duplicates = up.Duplicates
    r.res.BatchesProcessed = up.Batches
    for _, re := range up.Errors {
        r.res.ErrorDetails = append(r.res.ErrorDetails, domain.ErrorDetail{
            Code:    ErrorCode(re),
            OrderNo: re.OrderNo,
            Stage:   string(StagePersisting),
            Message: re.Err.Error(),
        })
    }
    return nil
}

func (r *run) statusesFor() []string {
    if len(r.req.Statuses) > 0 {
        return r.req.Statuses
    }
    return r.statuses
}
