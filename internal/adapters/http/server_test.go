package httpadapter

import (
    "context"
    "encoding/json"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/jonboulle/clockwork"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "orderdesk/internal/adapters/memory"
    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
    "orderdesk/internal/services/importer"
)

type stubImporter struct {
    mu     sync.Mutex
    reqs   []ports.ImportRequest
    result domain.ImportRunResult
}

func (s *stubImporter) Run(_ context.Context, req ports.ImportRequest) domain.ImportRunResult {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.reqs = append(s.reqs, req)
    res := s.result
    res.DateRange = domain.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}
    return res
}

func (s *stubImporter) requests() []ports.ImportRequest {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]ports.ImportRequest(nil), s.reqs...)
}

type fixedSchedule struct{ next time.Time }

func (f fixedSchedule) NextRun() time.Time { return f.next }
func (f fixedSchedule) Interval() string   { return "0 * * * *" }

type fixture struct {
    srv      *httptest.Server
    importer *stubImporter
    store    *memory.Store
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    f := &fixture{
        importer: &stubImporter{result: domain.ImportRunResult{Success: true, Stage: string(importer.StageDone)}},
        store:    memory.New(),
    }
    s := New(Options{
        Importer:   f.importer,
        Runs:       f.store,
        WorkOrders: f.store,
        Schedule:   fixedSchedule{next: time.Date(2025, 1, 8, 11, 0, 0, 0, time.UTC)},
        // Wednesday
        Clock:  clockwork.NewFakeClockAt(time.Date(2025, 1, 8, 10, 15, 0, 0, time.UTC)),
        Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
    })
    f.srv = httptest.NewServer(s.Routes())
    t.Cleanup(f.srv.Close)
    return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
    t.Helper()
    req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
    require.NoError(t, err)
    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    defer resp.Body.Close()
    b, err := io.ReadAll(resp.Body)
    require.NoError(t, err)
    return resp, b
}

func TestHealthz(t *testing.T) {
    f := newFixture(t)
    resp, body := f.do(t, http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, resp.StatusCode)
    assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestImport_EmptyBodyUsesWeekWindow(t *testing.T) {
    f := newFixture(t)
    resp, body := f.do(t, http.MethodPost, "/import", "")
    require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

    require.Len(t, f.importer.requests(), 1)
    req := f.importer.requests()[0]
    assert.Equal(t, "2025-01-06", req.StartDate)
    assert.Equal(t, "2025-01-08", req.EndDate)
    assert.True(t, req.Persist)
    assert.Equal(t, domain.TriggerManual, req.Trigger)

    var res domain.ImportRunResult
    require.NoError(t, json.Unmarshal(body, &res))
    assert.True(t, res.Success)
}

func TestImport_BodyOverrides(t *testing.T) {
    f := newFixture(t)
    resp, _ := f.do(t, http.MethodPost, "/import",
        `{"startDate":"2025-01-01","endDate":"2025-01-02","statuses":["success"],"persist":false,"afterTag":"t-9"}`)
    require.Equal(t, http.StatusOK, resp.StatusCode)

    req := f.importer.requests()[0]
    assert.Equal(t, "2025-01-01", req.StartDate)
    assert.Equal(t, "2025-01-02", req.EndDate)
    assert.Equal(t, []string{"success"}, req.Statuses)
    assert.False(t, req.Persist)
    assert.Equal(t, "t-9", req.AfterTag)
}

func TestImport_DryRunQuery(t *testing.T) {
    f := newFixture(t)
    resp, _ := f.do(t, http.MethodPost, "/import?dryRun=true", `{"persist":true}`)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.False(t, f.importer.requests()[0].Persist)
}

func TestImport_BadInput(t *testing.T) {
    f := newFixture(t)

    resp, _ := f.do(t, http.MethodPost, "/import", `{"startDate":`)
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

    resp, _ = f.do(t, http.MethodPost, "/import?dryRun=maybe", "")
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

    assert.Empty(t, f.importer.requests())
}

func TestImport_StatusCodes(t *testing.T) {
    cases := []struct {
        name   string
        result domain.ImportRunResult
        want   int
    }{
        {"record errors still ok", domain.ImportRunResult{Stage: "DONE", Errors: 1,
            ErrorDetails: []domain.ErrorDetail{{Code: importer.ErrCodePersist}}}, http.StatusOK},
        {"validation", domain.ImportRunResult{Stage: "FAILED",
            ErrorDetails: []domain.ErrorDetail{{Code: importer.ErrCodeValidation}}}, http.StatusBadRequest},
        {"config", domain.ImportRunResult{Stage: "FAILED", ConfigError: true,
            ErrorDetails: []domain.ErrorDetail{{Code: importer.ErrCodeConfig}}}, http.StatusInternalServerError},
        {"stage failure", domain.ImportRunResult{Stage: "FAILED",
            ErrorDetails: []domain.ErrorDetail{{Code: importer.ErrCodeHTTP}}}, http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            f := newFixture(t)
            f.importer.result = tc.result
            resp, body := f.do(t, http.MethodPost, "/import", "")
            assert.Equal(t, tc.want, resp.StatusCode)
            assert.Contains(t, string(body), `"stage"`)
        })
    }
}

func TestStatus(t *testing.T) {
    f := newFixture(t)

    resp, body := f.do(t, http.MethodGet, "/status", "")
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.JSONEq(t, `{"lastRun":null,"nextScheduledRun":"2025-01-08T11:00:00Z","scheduledInterval":"0 * * * *"}`, string(body))

    require.NoError(t, f.store.AppendRun(context.Background(), domain.ImportRunResult{ID: "r1", Success: true, Imported: 4}))
    _, body = f.do(t, http.MethodGet, "/status", "")
    var got statusResponse
    require.NoError(t, json.Unmarshal(body, &got))
    require.NotNil(t, got.LastRun)
    assert.Equal(t, "r1", got.LastRun.ID)
    assert.Equal(t, 4, got.LastRun.Imported)
}

func TestRuns(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    for _, id := range []string{"r1", "r2", "r3"} {
        require.NoError(t, f.store.AppendRun(ctx, domain.ImportRunResult{ID: id}))
    }

    resp, body := f.do(t, http.MethodGet, "/runs?limit=2", "")
    require.Equal(t, http.StatusOK, resp.StatusCode)
    var runs []domain.ImportRunResult
    require.NoError(t, json.Unmarshal(body, &runs))
    require.Len(t, runs, 2)
    assert.Equal(t, "r3", runs[0].ID)
    assert.Equal(t, "r2", runs[1].ID)

    _, body = f.do(t, http.MethodGet, "/runs", "")
    require.NoError(t, json.Unmarshal(body, &runs))
    assert.Len(t, runs, 3)

    resp, _ = f.do(t, http.MethodGet, "/runs?limit=abc", "")
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    resp, _ = f.do(t, http.MethodGet, "/runs?limit=0", "")
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRuns_EmptyLogIsArray(t *testing.T) {
    f := newFixture(t)
    _, body := f.do(t, http.MethodGet, "/runs", "")
    assert.JSONEq(t, `[]`, string(body))
}

func TestWorkOrder(t *testing.T) {
    f := newFixture(t)
    resp, _ := f.do(t, http.MethodGet, "/work-orders/WO-1", "")
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)

    now := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
    _, err := f.store.Insert(context.Background(), domain.WorkOrder{
        OrderNo: "WO-1", Status: domain.WorkOrderPendingReview, Timestamp: now, FetchedAt: now,
    })
    require.NoError(t, err)

    resp, body := f.do(t, http.MethodGet, "/work-orders/WO-1", "")
    require.Equal(t, http.StatusOK, resp.StatusCode)
    var wo domain.WorkOrder
    require.NoError(t, json.Unmarshal(body, &wo))
    assert.Equal(t, "WO-1", wo.OrderNo)
    assert.Equal(t, domain.WorkOrderPendingReview, wo.Status)
}

func TestUnconfiguredStorage(t *testing.T) {
    s := New(Options{Importer: &stubImporter{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
    srv := httptest.NewServer(s.Routes())
    defer srv.Close()

    resp, err := http.Get(srv.URL + "/runs")
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

    resp, err = http.Get(srv.URL + "/status")
    require.NoError(t, err)
    defer resp.Body.Close()
    body, _ := io.ReadAll(resp.Body)
    assert.JSONEq(t, `{"lastRun":null,"nextScheduledRun":null,"scheduledInterval":"disabled"}`, string(body))
}
