package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/go-redis/redis/v8"

    "payment-pipeline-api/services/auth"
)

func okHandler() http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("X-Client", GetClientFromContext(r.Context()))
        w.WriteHeader(http.StatusOK)
    })
}

func TestAuthMiddleware(t *testing.T) {
    svc, err := auth.NewJWTService("secret", "payment-pipeline-api")
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    token, _, err := svc.GenerateToken("billing-service")
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    handler := AuthMiddleware(svc)(okHandler())

    testCases := []struct {
        name   string
        header string
        status int
    }{
        {"missing header", "", http.StatusUnauthorized},
        {"wrong scheme", "Basic abc", http.StatusUnauthorized},
        {"invalid token", "Bearer nope", http.StatusUnauthorized},
        {"valid token", "Bearer " + token, http.StatusOK},
    }

    for _, tc := range testCases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/api/transactions/1", nil)
            if tc.header != "" {
                req.Header.Set("Authorization", tc.header)
            }
            rec := httptest.NewRecorder()
            handler.ServeHTTP(rec, req)

            if rec.Code != tc.status {
                t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
            }
            if tc.status == http.StatusOK && rec.Header().Get("X-Client") != "billing-service" {
                t.Fatalf("expected client in context, got %q", rec.Header().Get("X-Client"))
            }
        })
    }
}

func TestRequestIDMiddleware(t *testing.T) {
    var seen string
    handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        seen = GetRequestID(r.Context())
    }))

    req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
    rec := httptest.NewRecorder()
    handler.ServeHTTP(rec, req)
    if seen == "" || seen == "-" {
        t.Fatalf("expected generated request id")
    }
    if rec.Header().Get(RequestIDHeader) != seen {
        t.Fatalf("expected response header to carry request id")
    }

    req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
    req.Header.Set(RequestIDHeader, "abc-123")
    handler.ServeHTTP(httptest.NewRecorder(), req)
    if seen != "abc-123" {
        t.Fatalf("expected propagated request id, got %s", seen)
    }
}

func TestRateLimitMiddleware(t *testing.T) {
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })

    rl := newTestRateLimiter(t, client, nil)
    rl.configs["/api/transactions"] = RateLimitConfig{Requests: 2, Window: time.Minute, Message: "slow down"}
    handler := rl.RateLimitMiddleware()(okHandler())

    statuses := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)
        req.RemoteAddr = "10.0.0.1:5555"
        rec := httptest.NewRecorder()
        handler.ServeHTTP(rec, req)
        statuses = append(statuses, rec.Code)
    }

    if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
        t.Fatalf("expected first two requests allowed, got %v", statuses)
    }
    if statuses[2] != http.StatusTooManyRequests {
        t.Fatalf("expected third request limited, got %v", statuses)
    }

    req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)
    req.RemoteAddr = "10.0.0.2:5555"
    rec := httptest.NewRecorder()
    handler.ServeHTTP(rec, req)
    if rec.Code != http.StatusOK {
        t.Fatalf("expected other client allowed, got %d", rec.Code)
    }
}

func TestRateLimitFailsOpen(t *testing.T) {
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })
    mr.Close()

    handler := newTestRateLimiter(t, client, nil).RateLimitMiddleware()(okHandler())
    rec := httptest.NewRecorder()
    handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected request allowed when redis is down, got %d", rec.Code)
    }
}

func newTestRateLimiter(t *testing.T, client *redis.Client, trusted []string) *RateLimiter {
    t.Helper()
    rl, err := NewRateLimiter(client, trusted)
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    return rl
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })

    rl := newTestRateLimiter(t, client, nil)
    rl.configs["/api/transactions"] = RateLimitConfig{Requests: 1, Window: time.Minute, Message: "slow down"}
    handler := rl.RateLimitMiddleware()(okHandler())

    codes := make([]int, 0, 2)
    for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
        req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)
        req.RemoteAddr = "203.0.113.7:4444"
        req.Header.Set("X-Forwarded-For", spoofed)
        rec := httptest.NewRecorder()
        handler.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
    }

    if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
        t.Fatalf("expected rotating X-Forwarded-For not to reset the limit, got %v", codes)
    }
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })

    rl := newTestRateLimiter(t, client, []string{"10.0.0.0/8", "192.168.1.10"})

    testCases := []struct {
        name      string
        remote    string
        forwarded string
        realIP    string
        want      string
    }{
        {"untrusted peer", "203.0.113.7:4444", "1.1.1.1", "", "203.0.113.7"},
        {"trusted peer", "10.1.2.3:4444", "198.51.100.4", "", "198.51.100.4"},
        {"spoofed leftmost hop", "10.1.2.3:4444", "1.1.1.1, 198.51.100.4", "", "198.51.100.4"},
        {"chain of proxies", "192.168.1.10:4444", "198.51.100.4, 10.9.9.9", "", "198.51.100.4"},
        {"real ip header", "10.1.2.3:4444", "", "198.51.100.5", "198.51.100.5"},
        {"no headers", "10.1.2.3:4444", "", "", "10.1.2.3"},
    }

    for _, tc := range testCases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
            req.RemoteAddr = tc.remote
            if tc.forwarded != "" {
                req.Header.Set("X-Forwarded-For", tc.forwarded)
            }
            if tc.realIP != "" {
                req.Header.Set("X-Real-IP", tc.realIP)
            }
            if got := rl.clientIP(req); got != tc.want {
                t.Fatalf("expected %s, got %s", tc.want, got)
            }
        })
    }
}

func TestNewRateLimiterRejectsBadProxy(t *testing.T) {
    client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
    t.Cleanup(func() { client.Close() })

    if _, err := NewRateLimiter(client, []string{"not-an-ip"}); err == nil {
        t.Fatalf("expected error for invalid proxy")
    }
    if _, err := NewRateLimiter(client, []string{"10.0.0.0/33"}); err == nil {
        t.Fatalf("expected error for invalid CIDR")
    }
}
