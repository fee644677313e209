package handlers

import (
    "net/http"

    "github.com/gorilla/mux"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "payment-pipeline-api/metrics"
    "payment-pipeline-api/middleware"
    "payment-pipeline-api/services/auth"
    "payment-pipeline-api/tracing"
)

type RouterConfig struct {
    Transactions *TransactionHandler
    Auth         *AuthHandler
    Health       *HealthHandler
    JWT          *auth.JWTService
    // RateLimiter is optional; nil disables rate limiting.
    RateLimiter *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *mux.Router {
    router := mux.NewRouter()
    router.Use(middleware.RequestIDMiddleware)
    router.Use(corsMiddleware)
    router.Use(middleware.LoggingMiddleware)
    router.Use(metrics.Middleware)
    router.Use(tracing.Middleware)
    router.Use(middleware.SecurityHeadersMiddleware)

    router.Handle("/metrics", promhttp.Handler()).Methods("GET")

    api := router.PathPrefix("/api").Subrouter()
    if cfg.RateLimiter != nil {
        api.Use(cfg.RateLimiter.RateLimitMiddleware())
    }

    api.HandleFunc("/health", cfg.Health.Health).Methods("GET")
    api.HandleFunc("/auth/token", cfg.Auth.IssueToken).Methods("POST", "OPTIONS")

    protected := api.PathPrefix("/transactions").Subrouter()
    protected.Use(middleware.AuthMiddleware(cfg.JWT))
    protected.HandleFunc("", cfg.Transactions.CreateTransaction).Methods("POST")
    protected.HandleFunc("/{id}", cfg.Transactions.GetTransaction).Methods("GET")

    return router
}

func corsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, Idempotency-Key, X-Internal-Key, X-Request-ID")

        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusOK)
            return
        }
        next.ServeHTTP(w, r)
    })
}
