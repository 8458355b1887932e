// Package app wires configuration into the import pipeline for the binaries.
package app

import (
    "log/slog"
    "net/http"

    "orderdesk/internal/adapters/routing"
    "orderdesk/internal/config"
    "orderdesk/internal/ports"
    "orderdesk/internal/retry"
    "orderdesk/internal/services/importer"
    "orderdesk/internal/services/persist"
)

func NewRoutingClient(cfg config.Config, logger *slog.Logger) *routing.Client {
    return routing.New(routing.Options{
        BaseURL:    cfg.RoutingAPIURL,
        APIKey:     cfg.RoutingAPIKey,
        HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
        Retry: retry.Policy{
            MaxRetries: cfg.ImportMaxRetries,
            BaseDelay:  cfg.ImportRetryBase,
        },
        PageDelay:  cfg.ImportPageDelay,
        BatchDelay: cfg.ImportBatchDelay,
        Logger:     logger.With("component", "routing"),
    })
}

// NewImporter builds the import service. workOrders and runs may be nil;
// persisting runs then fail with a configuration error.
func NewImporter(cfg config.Config, logger *slog.Logger, workOrders ports.WorkOrderRepository, runs ports.RunLogRepository) *importer.Service {
    var writer *persist.Writer
    if workOrders != nil {
        writer = persist.New(workOrders, persist.WithLogger(logger.With("component", "persist")))
    }
    return importer.New(importer.Options{
        Provider: NewRoutingClient(cfg, logger),
        Writer:   writer,
        Runs:     runs,
        Statuses: cfg.ImportStatuses,
        Logger:   logger.With("component", "importer"),
    })
}
