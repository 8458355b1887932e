package httpadapter

import (
    "encoding/json"
    "errors"
    "io"
    "log/slog"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/jonboulle/clockwork"

    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
    "orderdesk/internal/services/importer"
)

const (
    defaultRunsLimit = 20
    maxRunsLimit     = 200
)

type Options struct {
    Importer ports.Importer
    // Runs, WorkOrders and Schedule may be nil when not configured.
    Runs       ports.RunLogRepository
    WorkOrders ports.WorkOrderRepository
    Schedule   ports.Schedule
    Clock      clockwork.Clock
    Logger     *slog.Logger
}

type Server struct {
    importer   ports.Importer
    runs       ports.RunLogRepository
    workOrders ports.WorkOrderRepository
    schedule   ports.Schedule
    clock      clockwork.Clock
    logger     *slog.Logger
}

func New(opts Options) *Server {
    s := &Server{
        importer:   opts.Importer,
        runs:       opts.Runs,
        workOrders: opts.WorkOrders,
        schedule:   opts.Schedule,
        clock:      opts.Clock,
        logger:     opts.Logger,
    }
    if s.clock == nil { s.clock = clockwork.NewRealClock() }
    if s.logger == nil { s.logger = slog.Default() }
    return s
}

// Routes returns a chi.Router with every handler mounted.
func (s *Server) Routes() chi.Router {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(s.logRequests)
    r.Use(middleware.Recoverer)

    r.Get("/healthz", s.getHealthz)
    r.Post("/import", s.postImport)
    r.Get("/status", s.getStatus)
    r.Get("/runs", s.getRuns)
    r.Get("/work-orders/{orderNo}", s.getWorkOrder)
    return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type importBody struct {
    StartDate string   `json:"startDate"`
    EndDate   string   `json:"endDate"`
    Statuses  []string `json:"statuses"`
    Persist   *bool    `json:"persist"`
    AfterTag  string   `json:"afterTag"`
}

func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
    var body importBody
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
        writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
        return
    }
    params, err := bindImportParams(r)
    if err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }

    start, end := importer.WeekWindow(s.clock.Now())
    req := ports.ImportRequest{
        StartDate: start,
        EndDate:   end,
        Statuses:  body.Statuses,
        Persist:   true,
        AfterTag:  body.AfterTag,
        Trigger:   domain.TriggerManual,
    }
    if body.StartDate != "" { req.StartDate = body.StartDate }
    if body.EndDate != "" { req.EndDate = body.EndDate }
    if body.Persist != nil { req.Persist = *body.Persist }
    if params.DryRun != nil && *params.DryRun { req.Persist = false }

    res := s.importer.Run(r.Context(), req)
    writeJSON(w, importStatusCode(res), res)
}

// importStatusCode maps a run to 200 (finished, record errors included),
// 400 (rejected input) or 500 (configuration or stage failure).
func importStatusCode(res domain.ImportRunResult) int {
    if res.Stage != string(importer.StageFailed) {
        return http.StatusOK
    }
    if res.ConfigError {
        return http.StatusInternalServerError
    }
    for _, d := range res.ErrorDetails {
        if d.Code == importer.ErrCodeValidation {
            return http.StatusBadRequest
        }
    }
    return http.StatusInternalServerError
}

type statusResponse struct {
    LastRun           *domain.ImportRunResult `json:"lastRun"`
    NextScheduledRun  *time.Time              `json:"nextScheduledRun"`
    ScheduledInterval string                  `json:"scheduledInterval"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
    var resp statusResponse
    if s.runs != nil {
        last, found, err := s.runs.LatestRun(r.Context())
        if err != nil {
            s.internalError(w, r, err)
            return
        }
        if found { resp.LastRun = &last }
    }
    resp.ScheduledInterval = "disabled"
    if s.schedule != nil {
        resp.ScheduledInterval = s.schedule.Interval()
        if next := s.schedule.NextRun(); !next.IsZero() {
            resp.NextScheduledRun = &next
        }
    }
    writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRuns(w http.ResponseWriter, r *http.Request) {
    if s.runs == nil {
        writeError(w, http.StatusServiceUnavailable, "run log is not configured")
        return
    }
    params, err := bindRunsParams(r)
    if err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    limit := defaultRunsLimit
    if params.Limit != nil {
        if *params.Limit < 1 {
            writeError(w, http.StatusBadRequest, "limit must be positive")
            return
        }
        limit = min(*params.Limit, maxRunsLimit)
    }
    runs, err := s.runs.ListRuns(r.Context(), limit)
    if err != nil {
        s.internalError(w, r, err)
        return
    }
    if runs == nil { runs = []domain.ImportRunResult{} }
    writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getWorkOrder(w http.ResponseWriter, r *http.Request) {
    if s.workOrders == nil {
        writeError(w, http.StatusServiceUnavailable, "work order storage is not configured")
        return
    }
    orderNo, err := bindOrderNo(r)
    if err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    wo, err := s.workOrders.GetByOrderNo(r.Context(), orderNo)
    if errors.Is(err, ports.ErrNotFound) {
        writeError(w, http.StatusNotFound, "work order "+orderNo+" not found")
        return
    }
    if err != nil {
        s.internalError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, wo)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
    s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
    writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
        started := s.clock.Now()
        next.ServeHTTP(ww, r)
        s.logger.Info("http request",
            "method", r.Method,
            "path", r.URL.Path,
            "status", ww.Status(),
            "bytes", ww.BytesWritten(),
            "duration", s.clock.Since(started),
            "request_id", middleware.GetReqID(r.Context()),
        )
    })
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
    writeJSON(w, code, map[string]string{"error": msg})
}
