package main

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-chi/chi/v5"

    httpadapter "orderdesk/internal/adapters/http"
    pg "orderdesk/internal/adapters/postgres"
    "orderdesk/internal/app"
    "orderdesk/internal/config"
    "orderdesk/internal/workers/importrunner"
)

func main() {
    if err := run(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}

// loadConfig reports a broken .env as itself rather than as a missing DATABASE_URL.
func loadConfig() (config.Config, error) {
    cfg, err := config.Load()
    if err != nil && !errors.Is(err, config.ErrMissingDatabaseURL) {
        return cfg, err
    }
    if cfg.DatabaseURL == "" {
        return cfg, errors.New("DATABASE_URL is required for the server")
    }
    return cfg, nil
}

func run() error {
    cfg, err := loadConfig()
    if err != nil {
        return err
    }
    logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
    defer closeLog()
    slog.SetDefault(logger)
    if cfg.RoutingAPIKey == "" {
        logger.Warn("ROUTING_API_KEY not set, imports will fail until it is configured")
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    db, err := pg.Connect(ctx, cfg.DatabaseURL)
    if err != nil {
        return fmt.Errorf("db connect: %w", err)
    }
    defer db.Close()
    if err := db.Migrate(ctx, logger); err != nil {
        return err
    }

    imp := app.NewImporter(cfg, logger, db, db)
    trigger, err := importrunner.New(imp, cfg.ImportSchedule, importrunner.WithLogger(logger.With("component", "trigger")))
    if err != nil {
        return err
    }
    triggerDone := make(chan struct{})
    go func() {
        importrunner.Run(ctx, trigger)
        close(triggerDone)
    }()

    srv := httpadapter.New(httpadapter.Options{
        Importer:   imp,
        Runs:       db,
        WorkOrders: db,
        Schedule:   trigger,
        Logger:     logger.With("component", "http"),
    })
    r := chi.NewRouter()
    r.Mount("/", srv.Routes())

    httpServer := &http.Server{
        Addr:              cfg.ListenAddr,
        Handler:           r,
        ReadHeaderTimeout: 10 * time.Second,
    }
    errCh := make(chan error, 1)
    go func() { errCh <- httpServer.ListenAndServe() }()
    logger.Info("listening", "addr", cfg.ListenAddr, "schedule", trigger.Interval())

    select {
    case <-ctx.Done():
        logger.Info("shutting down")
    case err := <-errCh:
        if !errors.Is(err, http.ErrServerClosed) {
            return fmt.Errorf("server error: %w", err)
        }
    }

    stop()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := httpServer.Shutdown(shutdownCtx); err != nil {
        logger.Error("http shutdown", "error", err)
    }
    <-triggerDone
    return nil
}
