package handlers

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "runtime"
    "sort"
    "time"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
    checks    map[string]HealthCheck
    startTime time.Time
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
    if checks == nil {
        checks = map[string]HealthCheck{}
    }
    return &HealthHandler{checks: checks, startTime: time.Now()}
}

type healthResponse struct {
    Status       string            `json:"status"`
    Time         string            `json:"time"`
    Dependencies map[string]string `json:"dependencies"`
    Uptime       string            `json:"uptime"`
    GoVersion    string            `json:"go_version"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
    defer cancel()

    health := healthResponse{
        Status:       "ok",
        Time:         time.Now().UTC().Format(time.RFC3339),
        Dependencies: make(map[string]string, len(h.checks)),
        Uptime:       fmt.Sprintf("%v", time.Since(h.startTime).Round(time.Second)),
        GoVersion:    runtime.Version(),
    }

    names := make([]string, 0, len(h.checks))
    for name := range h.checks {
        names = append(names, name)
    }
    sort.Strings(names)

    for _, name := range names {
        checkCtx, checkCancel := context.WithTimeout(ctx, 500*time.Millisecond)
        err := h.checks[name](checkCtx)
        checkCancel()

        if err != nil {
            health.Status = "degraded"
            health.Dependencies[name] = "error"
            continue
        }
        health.Dependencies[name] = "connected"
    }

    status := http.StatusOK
    if health.Status != "ok" {
        status = http.StatusServiceUnavailable
    }
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    json.NewEncoder(w).Encode(health)
}
