package main

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "orderdesk/internal/adapters/memory"
    pg "orderdesk/internal/adapters/postgres"
    "orderdesk/internal/app"
    "orderdesk/internal/config"
    "orderdesk/internal/domain"
    "orderdesk/internal/ports"
    "orderdesk/internal/services/importer"
)

func main() {
    var cmdRoot = &cobra.Command{
        Use:   "importctl",
        Short: "orderdesk import utility",
        Long:  `Run work order imports and manage the orderdesk database`,
    }
    cmdRoot.AddCommand(cmdRun())
    cmdRoot.AddCommand(cmdMigrate())
    cmdRoot.AddCommand(cmdRuns())

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    err := cmdRoot.ExecuteContext(ctx)
    stop()
    if err != nil {
        os.Exit(1)
    }
}

// setup loads config and the logger. A missing DATABASE_URL is left for the
// command to handle.
func setup() (config.Config, *slog.Logger, func() error, error) {
    cfg, err := config.Load()
    if err != nil && !errors.Is(err, config.ErrMissingDatabaseURL) {
        return cfg, nil, nil, err
    }
    logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
    return cfg, logger, closeLog, nil
}

func connect(ctx context.Context, cfg config.Config) (*pg.DB, error) {
    if cfg.DatabaseURL == "" {
        return nil, config.ErrMissingDatabaseURL
    }
    db, err := pg.Connect(ctx, cfg.DatabaseURL)
    if err != nil {
        return nil, fmt.Errorf("db connect: %w", err)
    }
    return db, nil
}

func cmdRun() *cobra.Command {
    var (
        startDate, endDate string
        afterTag           string
        statuses           []string
        dryRun, asJSON     bool
    )
    var cmd = &cobra.Command{
        Use:          "run",
        Short:        "import work orders for a date range (default: this week)",
        SilenceUsage: true,
        Args:         cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := cmd.Context()
            cfg, logger, closeLog, err := setup()
            if err != nil { return err }
            defer closeLog()

            var (
                workOrders ports.WorkOrderRepository
                runs       ports.RunLogRepository
            )
            if cfg.DatabaseURL != "" {
                db, err := connect(ctx, cfg)
                if err != nil { return err }
                defer db.Close()
                if err := db.Migrate(ctx, logger); err != nil { return err }
                workOrders, runs = db, db
            } else {
                logger.Warn("DATABASE_URL not set, using an in-memory store for this run")
                store := memory.New()
                workOrders, runs = store, store
            }

            start, end := importer.WeekWindow(time.Now())
            if startDate != "" { start = startDate }
            if endDate != "" { end = endDate }

            imp := app.NewImporter(cfg, logger, workOrders, runs)
            res := imp.Run(ctx, ports.ImportRequest{
                StartDate: start,
                EndDate:   end,
                Statuses:  statuses,
                Persist:   !dryRun,
                AfterTag:  afterTag,
                Trigger:   domain.TriggerCLI,
            })

            out := cmd.OutOrStdout()
            if asJSON {
                enc := json.NewEncoder(out)
                enc.SetIndent("", "  ")
                if err := enc.Encode(res); err != nil { return err }
            } else {
                printSummary(out, res)
            }
            if res.Stage == string(importer.StageFailed) {
                return fmt.Errorf("import failed at %s", failedStage(res))
            }
            return nil
        },
    }
    cmd.Flags().StringVar(&startDate, "start", "", "first day to import (yyyy-MM-dd), default Monday of this week")
    cmd.Flags().StringVar(&endDate, "end", "", "last day to import (yyyy-MM-dd), default today")
    cmd.Flags().StringSliceVar(&statuses, "status", nil, "completion statuses to keep (repeatable)")
    cmd.Flags().StringVar(&afterTag, "after-tag", "", "resume a truncated search from this tag")
    cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and filter without writing work orders")
    cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
    return cmd
}

func cmdMigrate() *cobra.Command {
    return &cobra.Command{
        Use:          "migrate",
        Short:        "apply database migrations",
        SilenceUsage: true,
        Args:         cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, logger, closeLog, err := setup()
            if err != nil { return err }
            defer closeLog()

            db, err := connect(cmd.Context(), cfg)
            if err != nil { return err }
            defer db.Close()
            return db.Migrate(cmd.Context(), logger)
        },
    }
}

func cmdRuns() *cobra.Command {
    limit := 10
    var cmd = &cobra.Command{
        Use:          "runs",
        Short:        "list recent import runs",
        SilenceUsage: true,
        Args:         cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, _, closeLog, err := setup()
            if err != nil { return err }
            defer closeLog()

            db, err := connect(cmd.Context(), cfg)
            if err != nil { return err }
            defer db.Close()

            runs, err := db.ListRuns(cmd.Context(), limit)
            if err != nil { return err }
            printRuns(cmd.OutOrStdout(), runs, time.Now())
            return nil
        },
    }
    cmd.Flags().IntVarP(&limit, "limit", "n", limit, "number of runs to show")
    return cmd
}
