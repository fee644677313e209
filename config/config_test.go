package config

import (
    "errors"
    "testing"
    "time"
)

var configKeys = []string{
    "STRIPE_API_KEY", "STRIPE_API_URL", "STRIPE_TIMEOUT", "TRANSACTION_LOG", "SERVER_PORT",
    "JWT_SECRET", "JWT_ISSUER", "INTERNAL_API_KEY", "REDIS_URL", "WORKER_CONCURRENCY",
    "NOTIFY_ASYNC", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "SMTP_HOST", "SMTP_PORT",
    "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM", "SMS_GATEWAY_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT",
    "OTEL_SERVICE_NAME", "TRUSTED_PROXIES",
}

func clearEnv(t *testing.T) {
    t.Helper()
    for _, key := range configKeys {
        t.Setenv(key, "")
    }
}

func TestFromEnvMissingStripeKey(t *testing.T) {
    clearEnv(t)

    cfg, err := FromEnv()
    if cfg != nil {
        t.Fatalf("expected nil config, got %+v", cfg)
    }
    if !errors.Is(err, ErrConfiguration) {
        t.Fatalf("expected ErrConfiguration, got %v", err)
    }
}

func TestFromEnvDefaults(t *testing.T) {
    clearEnv(t)
    t.Setenv("STRIPE_API_KEY", "sk_test_123")

    cfg, err := FromEnv()
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    if cfg.Server.Port != "8080" {
        t.Fatalf("expected port 8080, got %s", cfg.Server.Port)
    }
    if cfg.Log.TransactionLog != "transactions.log" {
        t.Fatalf("expected transactions.log, got %s", cfg.Log.TransactionLog)
    }
    if cfg.Stripe.Timeout != 30*time.Second {
        t.Fatalf("expected 30s timeout, got %s", cfg.Stripe.Timeout)
    }
    if cfg.Redis.WorkerConcurrency != 2 {
        t.Fatalf("expected concurrency 2, got %d", cfg.Redis.WorkerConcurrency)
    }
    if cfg.Redis.Enabled() || cfg.Database.Enabled() || cfg.Tracing.Enabled() || cfg.NotifyAsync {
        t.Fatalf("expected optional components disabled, got %+v", cfg)
    }
}

func TestFromEnvOverrides(t *testing.T) {
    clearEnv(t)
    t.Setenv("STRIPE_API_KEY", "sk_test_123")
    t.Setenv("STRIPE_TIMEOUT", "5s")
    t.Setenv("SERVER_PORT", "9090")
    t.Setenv("REDIS_URL", "redis://localhost:6379/1")
    t.Setenv("WORKER_CONCURRENCY", "50")
    t.Setenv("NOTIFY_ASYNC", "true")
    t.Setenv("DB_HOST", "db:3306")
    t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.10 ")

    cfg, err := FromEnv()
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    if cfg.Stripe.Timeout != 5*time.Second {
        t.Fatalf("expected 5s, got %s", cfg.Stripe.Timeout)
    }
    if cfg.Server.Port != "9090" {
        t.Fatalf("expected 9090, got %s", cfg.Server.Port)
    }
    if cfg.Redis.WorkerConcurrency != 8 {
        t.Fatalf("expected concurrency clamped to 8, got %d", cfg.Redis.WorkerConcurrency)
    }
    if !cfg.NotifyAsync || !cfg.Database.Enabled() {
        t.Fatalf("expected async notifications and ledger enabled")
    }
    proxies := cfg.Server.TrustedProxies
    if len(proxies) != 2 || proxies[0] != "10.0.0.0/8" || proxies[1] != "192.168.1.10" {
        t.Fatalf("unexpected trusted proxies %q", proxies)
    }
}

func TestFromEnvInvalidValues(t *testing.T) {
    testCases := map[string]string{
        "STRIPE_TIMEOUT":     "soon",
        "WORKER_CONCURRENCY": "many",
        "NOTIFY_ASYNC":       "maybe",
    }
    for key, value := range testCases {
        t.Run(key, func(t *testing.T) {
            clearEnv(t)
            t.Setenv("STRIPE_API_KEY", "sk_test_123")
            t.Setenv("REDIS_URL", "redis://localhost:6379/0")
            t.Setenv(key, value)

            if _, err := FromEnv(); !errors.Is(err, ErrConfiguration) {
                t.Fatalf("expected ErrConfiguration, got %v", err)
            }
        })
    }
}

func TestFromEnvAsyncRequiresRedis(t *testing.T) {
    clearEnv(t)
    t.Setenv("STRIPE_API_KEY", "sk_test_123")
    t.Setenv("NOTIFY_ASYNC", "true")

    if _, err := FromEnv(); !errors.Is(err, ErrConfiguration) {
        t.Fatalf("expected ErrConfiguration, got %v", err)
    }
}
