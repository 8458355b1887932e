// Package importrunner fires imports on a cron schedule.
package importrunner

import (
    "context"
    "fmt"
    "log/slog"
    "time"

    "github.com/jonboulle/clockwork"
    "github.com/robfig/cron/v3"

    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
    "orderdesk/internal/services/importer"
)

const DefaultTimeout = 30 * time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or a descriptor such as @hourly.
func ParseSchedule(expr string) (cron.Schedule, error) {
    sched, err := parser.Parse(expr)
    if err != nil {
        return nil, fmt.Errorf("import schedule %q: %w", expr, err)
    }
    return sched, nil
}

type Option func(*Trigger)

func WithClock(c clockwork.Clock) Option { return func(t *Trigger) { t.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(t *Trigger) { t.logger = l } }

// WithTimeout bounds a single scheduled run.
func WithTimeout(d time.Duration) Option { return func(t *Trigger) { t.timeout = d } }

// Trigger runs the importer over the current week window on a schedule.
// An empty expression yields a disabled trigger that still serves RunOnce.
type Trigger struct {
    importer ports.Importer
    expr     string
    schedule cron.Schedule
    clock    clockwork.Clock
    logger   *slog.Logger
    timeout  time.Duration
}

var _ ports.Schedule = (*Trigger)(nil)

func New(imp ports.Importer, expr string, opts ...Option) (*Trigger, error) {
    t := &Trigger{
        importer: imp,
        expr:     expr,
        clock:    clockwork.NewRealClock(),
        logger:   slog.Default(),
        timeout:  DefaultTimeout,
    }
    for _, o := range opts {
        o(t)
    }
    if expr != "" {
        sched, err := ParseSchedule(expr)
        if err != nil { return nil, err }
        t.schedule = sched
    }
    return t, nil
}

func (t *Trigger) Enabled() bool { return t.schedule != nil }

// NextRun returns the next activation, or the zero time when disabled.
func (t *Trigger) NextRun() time.Time {
    if t.schedule == nil {
        return time.Time{}
    }
    return t.schedule.Next(t.clock.Now())
}

func (t *Trigger) Interval() string {
    if t.schedule == nil {
        return "disabled"
    }
    return t.expr
}

// RunOnce imports Monday of the current week through today and persists the result.
func (t *Trigger) RunOnce(ctx context.Context) domain.ImportRunResult {
    start, end := importer.WeekWindow(t.clock.Now())
    return t.importer.Run(ctx, ports.ImportRequest{
        StartDate: start,
        EndDate:   end,
        Persist:   true,
        Trigger:   domain.TriggerScheduled,
    })
}

// Run schedules RunOnce and blocks until ctx is done. A tick that fires while
// a run is still going is skipped.
func Run(ctx context.Context, t *Trigger) {
    if !t.Enabled() {
        t.logger.Info("scheduled import disabled")
        return
    }
    cl := cronLogger{t.logger}
    c := cron.New(
        cron.WithParser(parser),
        cron.WithLogger(cl),
        cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
    )
    c.Schedule(t.schedule, cron.FuncJob(func() {
        runCtx, cancel := context.WithTimeout(ctx, t.timeout)
        defer cancel()
        res := t.RunOnce(runCtx)
        t.logger.Info("scheduled import complete", "run_id", res.ID, "success", res.Success, "imported", res.Imported)
    }))
    c.Start()
    t.logger.Info("scheduled import started", "schedule", t.expr, "next_run", t.NextRun())

    <-ctx.Done()
    // Wait for an in-flight run to observe cancellation.
    <-c.Stop().Done()
    t.logger.Info("scheduled import stopped")
}

type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
    c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
    c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
