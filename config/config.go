package config

import (
    "errors"
    "fmt"
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"

    "payment-pipeline-api/database"
    "payment-pipeline-api/services/email"
    "payment-pipeline-api/services/payment/stripe"
)

var ErrConfiguration = errors.New("configuration error")

const (
    defaultServerPort        = "8080"
    defaultTransactionLog    = "transactions.log"
    defaultJWTIssuer         = "payment-pipeline-api"
    defaultWorkerConcurrency = 2
    maxWorkerConcurrency     = 8
    defaultServiceName       = "payment-pipeline-api"
)

type Config struct {
    Stripe      stripe.Config
    SMTP        email.SMTPConfig
    SMS         SMSConfig
    Server      ServerConfig
    Redis       RedisConfig
    Database    database.DatabaseConfig
    Auth        AuthConfig
    Log         LogConfig
    Tracing     TracingConfig
    NotifyAsync bool
}

type SMSConfig struct {
    GatewayName string
}

type ServerConfig struct {
    Port string
    // TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is believed.
    TrustedProxies []string
}

type RedisConfig struct {
    URL               string
    WorkerConcurrency int
}

func (c RedisConfig) Enabled() bool {
    return c.URL != ""
}

type AuthConfig struct {
    JWTSecret   string
    JWTIssuer   string
    InternalKey string
}

type LogConfig struct {
    TransactionLog string
}

type TracingConfig struct {
    Endpoint    string
    ServiceName string
}

func (c TracingConfig) Enabled() bool {
    return c.Endpoint != ""
}

// Load reads .env (when present) and the process environment. A missing
// STRIPE_API_KEY is reported as ErrConfiguration.
func Load() (*Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        log.Printf("Warning: Error loading .env file: %v", err)
    }
    return FromEnv()
}

func FromEnv() (*Config, error) {
    cfg := &Config{
        Stripe: stripe.Config{
            APIKey:  os.Getenv("STRIPE_API_KEY"),
            BaseURL: os.Getenv("STRIPE_API_URL"),
        },
        SMTP: email.SMTPConfig{
            Host:     os.Getenv("SMTP_HOST"),
            Port:     os.Getenv("SMTP_PORT"),
            Username: os.Getenv("SMTP_USER"),
            Password: os.Getenv("SMTP_PASSWORD"),
            From:     os.Getenv("SMTP_FROM"),
        },
        SMS: SMSConfig{
            GatewayName: os.Getenv("SMS_GATEWAY_NAME"),
        },
        Server: ServerConfig{
            Port:           getEnv("SERVER_PORT", defaultServerPort),
            TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
        },
        Redis: RedisConfig{
            URL: os.Getenv("REDIS_URL"),
        },
        Database: database.DatabaseConfig{
            Host:     os.Getenv("DB_HOST"),
            User:     os.Getenv("DB_USER"),
            Password: os.Getenv("DB_PASSWORD"),
            DBName:   os.Getenv("DB_NAME"),
        },
        Auth: AuthConfig{
            JWTSecret:   os.Getenv("JWT_SECRET"),
            JWTIssuer:   getEnv("JWT_ISSUER", defaultJWTIssuer),
            InternalKey: os.Getenv("INTERNAL_API_KEY"),
        },
        Log: LogConfig{
            TransactionLog: getEnv("TRANSACTION_LOG", defaultTransactionLog),
        },
        Tracing: TracingConfig{
            Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
            ServiceName: getEnv("OTEL_SERVICE_NAME", defaultServiceName),
        },
    }

    if strings.TrimSpace(cfg.Stripe.APIKey) == "" {
        return nil, fmt.Errorf("%w: STRIPE_API_KEY is not set", ErrConfiguration)
    }

    timeout, err := parseDuration("STRIPE_TIMEOUT", stripe.RequestTimeout)
    if err != nil {
        return nil, err
    }
    cfg.Stripe.Timeout = timeout

    concurrency, err := parseInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
    if err != nil {
        return nil, err
    }
    cfg.Redis.WorkerConcurrency = clamp(concurrency, 1, maxWorkerConcurrency)

    notifyAsync, err := parseBool("NOTIFY_ASYNC", false)
    if err != nil {
        return nil, err
    }
    cfg.NotifyAsync = notifyAsync
    if cfg.NotifyAsync && !cfg.Redis.Enabled() {
        return nil, fmt.Errorf("%w: NOTIFY_ASYNC requires REDIS_URL", ErrConfiguration)
    }

    log.Printf("Config loaded: port=%s redis=%t ledger=%t smtp=%t async=%t tracing=%t",
        cfg.Server.Port, cfg.Redis.Enabled(), cfg.Database.Enabled(), cfg.SMTP.Host != "",
        cfg.NotifyAsync, cfg.Tracing.Enabled())

    return cfg, nil
}

func getEnv(key, fallback string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
    raw := strings.TrimSpace(os.Getenv(key))
    if raw == "" {
        return fallback, nil
    }
    d, err := time.ParseDuration(raw)
    if err != nil || d <= 0 {
        return 0, fmt.Errorf("%w: invalid %s %q", ErrConfiguration, key, raw)
    }
    return d, nil
}

func parseInt(key string, fallback int) (int, error) {
    raw := strings.TrimSpace(os.Getenv(key))
    if raw == "" {
        return fallback, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, fmt.Errorf("%w: invalid %s %q", ErrConfiguration, key, raw)
    }
    return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
    raw := strings.TrimSpace(os.Getenv(key))
    if raw == "" {
        return fallback, nil
    }
    b, err := strconv.ParseBool(raw)
    if err != nil {
        return false, fmt.Errorf("%w: invalid %s %q", ErrConfiguration, key, raw)
    }
    return b, nil
}

func splitList(raw string) []string {
    var out []string
    for _, part := range strings.Split(raw, ",") {
        if part = strings.TrimSpace(part); part != "" {
            out = append(out, part)
        }
    }
    return out
}

func clamp(n, lo, hi int) int {
    if n < lo {
        return lo
    }
    if n > hi {
        return hi
    }
    return n
}
