package config

import (
    "errors"
    "fmt"
    "io/fs"
    "log/slog"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

type Config struct {
    Env         string
    ListenAddr  string
    DatabaseURL string

    RoutingAPIURL string
    RoutingAPIKey string
    HTTPTimeout   time.Duration

    ImportSchedule   string
    ImportStatuses   []string
    ImportPageDelay  time.Duration
    ImportBatchDelay time.Duration
    ImportRetryBase  time.Duration
    ImportMaxRetries int

    LogFile  string
    LogLevel slog.Level
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL not set")

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// Load reads configuration from the environment, after applying an optional
// .env file from the working directory.
func Load() (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return Config{}, fmt.Errorf("load .env: %w", err)
    }
    cfg := Config{
        Env:         getenv("APP_ENV", "development"),
        ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
        DatabaseURL: os.Getenv("DATABASE_URL"),

        RoutingAPIURL: strings.TrimRight(getenv("ROUTING_API_URL", "https://api.routing.example/v1"), "/"),
        RoutingAPIKey: os.Getenv("ROUTING_API_KEY"),
        HTTPTimeout:   getenvDuration("HTTP_TIMEOUT", 60*time.Second),

        ImportSchedule:   os.Getenv("IMPORT_SCHEDULE"),
        ImportStatuses:   splitList(getenv("IMPORT_STATUSES", "success,failed,rejected")),
        ImportPageDelay:  getenvDuration("IMPORT_PAGE_DELAY", 300*time.Millisecond),
        ImportBatchDelay: getenvDuration("IMPORT_BATCH_DELAY", 200*time.Millisecond),
        ImportRetryBase:  getenvDuration("IMPORT_RETRY_BASE", 2*time.Second),
        ImportMaxRetries: getenvInt("IMPORT_MAX_RETRIES", 3),

        LogFile:  getenv("LOG_FILE", "/tmp/orderdesk.log"),
        LogLevel: parseLogLevel(getenv("LOG_LEVEL", "info")),
    }
    // An explicitly empty IMPORT_SCHEDULE disables the trigger.
    if _, set := os.LookupEnv("IMPORT_SCHEDULE"); !set {
        cfg.ImportSchedule = "0 * * * *"
    }
    if cfg.DatabaseURL == "" {
        // Not fatal for dry runs; callers decide.
        return cfg, ErrMissingDatabaseURL
    }
    return cfg, nil
}

func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var out int
        _, err := fmt.Sscanf(v, "%d", &out)
        if err == nil { return out }
    }
    return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil { return d }
    }
    return def
}

func splitList(s string) []string {
    var out []string
    for _, part := range strings.Split(s, ",") {
        if part = strings.TrimSpace(part); part != "" {
            out = append(out, strings.ToLower(part))
        }
    }
    return out
}

func parseLogLevel(s string) slog.Level {
    switch strings.ToUpper(s) {
    case "DEBUG":
        return slog.LevelDebug
    case "WARN", "WARNING":
        return slog.LevelWarn
    case "ERROR":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}
