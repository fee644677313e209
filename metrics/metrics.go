package metrics

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    RequestTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "http_requests_total",
            Help: "Total number of HTTP requests",
        },
        []string{"method", "path", "status"},
    )
    RequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "http_request_duration_seconds",
            Help:    "HTTP request duration in seconds",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "path"},
    )
    TransactionsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "payment_transactions_total",
            Help: "Payment pipeline runs by outcome and the last state reached",
        },
        []string{"outcome", "state"},
    )
    GatewayDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "payment_gateway_duration_seconds",
            Help:    "Latency of charge calls to the payment gateway",
            Buckets: prometheus.DefBuckets,
        },
        []string{"result"},
    )
    NotificationFailures = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "payment_notification_failures_total",
            Help: "Confirmations that could not be delivered after a successful charge",
        },
    )
    LogFailures = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "payment_log_failures_total",
            Help: "Transaction log or ledger writes that failed after a successful charge",
        },
        []string{"sink"},
    )
)

func NormalizePath(p string) string {
    p = strings.TrimPrefix(p, "/")
    p = strings.TrimPrefix(p, "api/")
    if idx := strings.Index(p, "/"); idx >= 0 {
        p = p[:idx]
    }
    if p == "" {
        return "root"
    }
    return p
}

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (r *statusRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func Middleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path == "/metrics" {
            next.ServeHTTP(w, r)
            return
        }
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(rec, r)
        duration := time.Since(start).Seconds()
        path := NormalizePath(r.URL.Path)
        status := strconv.Itoa(rec.status)
        RequestTotal.WithLabelValues(r.Method, path, status).Inc()
        RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
    })
}
