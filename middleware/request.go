package middleware

import (
    "context"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
)

const (
    RequestIDContextKey contextKey = "request_id"
    RequestIDHeader                = "X-Request-ID"
)

// RequestIDMiddleware propagates X-Request-ID or assigns a new uuid.
func RequestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
        if requestID == "" || len(requestID) > 64 {
            requestID = uuid.New().String()
        }
        w.Header().Set(RequestIDHeader, requestID)

        ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

func GetRequestID(ctx context.Context) string {
    id, _ := ctx.Value(RequestIDContextKey).(string)
    if id == "" {
        return "-"
    }
    return id
}

func LoggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}

        next.ServeHTTP(wrapper, r)

        client := GetClientFromContext(r.Context())
        if client == "" {
            client = "anonymous"
        }
        log.Printf("[%s] %s %s %s %d %v",
            GetRequestID(r.Context()), r.Method, r.RequestURI, client, wrapper.status, time.Since(start))
    })
}

// SecurityHeadersMiddleware sets no-store caching and basic hardening headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("X-Content-Type-Options", "nosniff")
        w.Header().Set("X-Frame-Options", "DENY")
        w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

        if strings.HasPrefix(r.URL.Path, "/api/") {
            w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
            w.Header().Set("Pragma", "no-cache")
        }

        next.ServeHTTP(w, r)
    })
}

type responseWriter struct {
    http.ResponseWriter
    status int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.status = code
    rw.ResponseWriter.WriteHeader(code)
}
