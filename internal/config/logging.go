package config

import (
    "io"
    "log/slog"
    "os"

    slogmulti "github.com/samber/slog-multi"
)

// SetupLogger logs text to stderr and, when logFile opens, JSON lines to it.
// The returned func closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
    noop := func() error { return nil }
    if logFile == "" {
        return SetupLoggerWithWriters(os.Stderr, nil, level), noop
    }
    f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
    if err != nil {
        logger := SetupLoggerWithWriters(os.Stderr, nil, level)
        logger.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
        return logger, noop
    }
    return SetupLoggerWithWriters(os.Stderr, f, level), f.Close
}

// SetupLoggerWithWriters fans records out to console as text and to jsonOut
// as JSON. A nil jsonOut gives a console-only logger.
func SetupLoggerWithWriters(console, jsonOut io.Writer, level slog.Level) *slog.Logger {
    opts := &slog.HandlerOptions{Level: level}
    handlers := []slog.Handler{slog.NewTextHandler(console, opts)}
    if jsonOut != nil {
        handlers = append(handlers, slog.NewJSONHandler(jsonOut, opts))
    }
    return slog.New(slogmulti.Fanout(handlers...))
}
