package config

import (
    "bytes"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DATABASE_URL", "")
    t.Setenv("ROUTING_API_KEY", "")

    cfg, err := Load()
    require.ErrorIs(t, err, ErrMissingDatabaseURL)

    assert.Equal(t, ":8080", cfg.ListenAddr)
    assert.Equal(t, "0 * * * *", cfg.ImportSchedule)
    assert.Equal(t, []string{"success", "failed", "rejected"}, cfg.ImportStatuses)
    assert.Equal(t, 2*time.Second, cfg.ImportRetryBase)
    assert.Equal(t, 3, cfg.ImportMaxRetries)
    assert.Equal(t, 300*time.Millisecond, cfg.ImportPageDelay)
    assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DATABASE_URL", "postgres://localhost/orderdesk")
    t.Setenv("ROUTING_API_URL", "http://provider.local/api/")
    t.Setenv("IMPORT_SCHEDULE", "")
    t.Setenv("IMPORT_STATUSES", " Success , FAILED ,")
    t.Setenv("IMPORT_MAX_RETRIES", "5")
    t.Setenv("IMPORT_PAGE_DELAY", "1s")
    t.Setenv("LOG_LEVEL", "debug")

    cfg, err := Load()
    require.NoError(t, err)

    assert.Equal(t, "http://provider.local/api", cfg.RoutingAPIURL)
    assert.Empty(t, cfg.ImportSchedule)
    assert.Equal(t, []string{"success", "failed"}, cfg.ImportStatuses)
    assert.Equal(t, 5, cfg.ImportMaxRetries)
    assert.Equal(t, time.Second, cfg.ImportPageDelay)
    assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestSetupLoggerWithWriters(t *testing.T) {
    var stderr, file bytes.Buffer
    logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

    logger.Debug("hidden")
    logger.Info("import finished", "imported", 3)

    assert.NotContains(t, stderr.String(), "hidden")
    assert.Contains(t, stderr.String(), "imported=3")
    assert.True(t, strings.Contains(file.String(), `"imported":3`))
}

func TestSetupLoggerWithWriters_ConsoleOnly(t *testing.T) {
    var console bytes.Buffer
    logger := SetupLoggerWithWriters(&console, nil, slog.LevelWarn)

    logger.Info("quiet")
    logger.Warn("search page cap reached", "pages", 50)

    assert.NotContains(t, console.String(), "quiet")
    assert.Contains(t, console.String(), "pages=50")
}

func TestSetupLogger_WritesJSONFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "orderdesk.log")
    logger, closeLog := SetupLogger(path, slog.LevelInfo)
    logger.Info("import finished", "run_id", "r1")
    require.NoError(t, closeLog())

    b, err := os.ReadFile(path)
    require.NoError(t, err)
    assert.Contains(t, string(b), `"run_id":"r1"`)
}

func TestSetupLogger_UnwritableFileFallsBack(t *testing.T) {
    path := filepath.Join(t.TempDir(), "missing-dir", "orderdesk.log")
    logger, closeLog := SetupLogger(path, slog.LevelInfo)
    require.NotNil(t, logger)
    assert.NoError(t, closeLog())
}

func TestLoad_UnreadableEnvFile(t *testing.T) {
    t.Chdir(t.TempDir())
    require.NoError(t, os.Mkdir(".env", 0o755))

    _, err := Load()
    require.Error(t, err)
    assert.NotErrorIs(t, err, ErrMissingDatabaseURL)
}
