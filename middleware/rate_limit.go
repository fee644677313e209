package middleware

import (
    "context"
    "fmt"
    "log"
    "net"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-redis/redis/v8"

    "payment-pipeline-api/utils"
)

type RateLimiter struct {
    client  *redis.Client
    configs map[string]RateLimitConfig
    trusted []*net.IPNet
    now     func() time.Time
}

type RateLimitConfig struct {
    Requests int
    Window   time.Duration
    Message  string
}

var defaultConfigs = map[string]RateLimitConfig{
    "/api/auth/token": {
        Requests: 20,
        Window:   time.Minute,
        Message:  "Too many token requests. Please wait a minute.",
    },
    "/api/transactions": {
        Requests: 30,
        Window:   time.Minute,
        Message:  "Too many payment attempts. Please slow down.",
    },
    "default": {
        Requests: 60,
        Window:   time.Minute,
        Message:  "Rate limit exceeded. Please slow down your requests.",
    },
}

// fixed window counter; the key expires with its window
const rateLimitScript = `
    local current = redis.call('INCR', KEYS[1])
    if current == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[2])
    end
    local limit = tonumber(ARGV[1])
    if current > limit then
        return {0, 0}
    end
    return {1, limit - current}
`

// NewRateLimiter keys limits on the client address. Forwarding headers are
// only honoured when the direct peer is in trustedProxies (IPs or CIDRs).
func NewRateLimiter(client *redis.Client, trustedProxies []string) (*RateLimiter, error) {
    if client == nil {
        return nil, fmt.Errorf("redis client is required")
    }
    trusted, err := parseTrustedProxies(trustedProxies)
    if err != nil {
        return nil, err
    }

    configs := make(map[string]RateLimitConfig, len(defaultConfigs))
    for k, v := range defaultConfigs {
        configs[k] = v
    }
    return &RateLimiter{client: client, configs: configs, trusted: trusted, now: time.Now}, nil
}

func parseTrustedProxies(entries []string) ([]*net.IPNet, error) {
    var nets []*net.IPNet
    for _, entry := range entries {
        entry = strings.TrimSpace(entry)
        if entry == "" {
            continue
        }
        if !strings.Contains(entry, "/") {
            ip := net.ParseIP(entry)
            if ip == nil {
                return nil, fmt.Errorf("invalid trusted proxy %q", entry)
            }
            bits := 8 * net.IPv4len
            if ip.To4() == nil {
                bits = 8 * net.IPv6len
            }
            nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
            continue
        }
        _, ipNet, err := net.ParseCIDR(entry)
        if err != nil {
            return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
        }
        nets = append(nets, ipNet)
    }
    return nets, nil
}

// RateLimitMiddleware fails open when Redis is unavailable.
func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            endpoint, config := rl.getConfigForEndpoint(r.URL.Path)
            now := rl.now()
            windowEnd := now.Truncate(config.Window).Add(config.Window)
            key := fmt.Sprintf("rate_limit:%s:%s:%d", endpoint, rl.clientIP(r), windowEnd.Unix())

            allowed, remaining, err := rl.checkRateLimit(r.Context(), key, config)
            if err != nil {
                log.Printf("[%s] Rate limit check error: %v", GetRequestID(r.Context()), err)
                next.ServeHTTP(w, r)
                return
            }

            w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
            w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
            w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(windowEnd.Unix(), 10))

            if !allowed {
                log.Printf("[%s] Rate limit exceeded for key: %s", GetRequestID(r.Context()), key)
                retryAfter := int64(windowEnd.Sub(now).Seconds())
                if retryAfter < 1 {
                    retryAfter = 1
                }
                w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
                utils.SendErrorResponse(w, http.StatusTooManyRequests, config.Message)
                return
            }

            next.ServeHTTP(w, r)
        })
    }
}

func (rl *RateLimiter) getConfigForEndpoint(path string) (string, RateLimitConfig) {
    for prefix, config := range rl.configs {
        if prefix == "default" {
            continue
        }
        if path == prefix || strings.HasPrefix(path, prefix+"/") {
            return prefix, config
        }
    }
    return "default", rl.configs["default"]
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (bool, int, error) {
    result, err := rl.client.Eval(ctx, rateLimitScript, []string{key},
        config.Requests, config.Window.Milliseconds()).Result()
    if err != nil {
        return false, 0, err
    }

    values, ok := result.([]interface{})
    if !ok || len(values) != 2 {
        return false, 0, fmt.Errorf("unexpected redis result format")
    }
    allowed, ok1 := values[0].(int64)
    remaining, ok2 := values[1].(int64)
    if !ok1 || !ok2 {
        return false, 0, fmt.Errorf("failed to parse redis result")
    }

    return allowed == 1, int(remaining), nil
}

// clientIP walks X-Forwarded-For from the right while hops are trusted
// proxies. Without a trusted peer the headers are ignored.
func (rl *RateLimiter) clientIP(r *http.Request) string {
    remote := r.RemoteAddr
    if host, _, err := net.SplitHostPort(remote); err == nil {
        remote = host
    }
    if !rl.isTrusted(remote) {
        return remote
    }

    if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
        hops := strings.Split(forwarded, ",")
        for i := len(hops) - 1; i >= 0; i-- {
            hop := strings.TrimSpace(hops[i])
            if hop == "" {
                continue
            }
            if !rl.isTrusted(hop) {
                return hop
            }
        }
    }

    if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
        return ip
    }
    return remote
}

func (rl *RateLimiter) isTrusted(addr string) bool {
    ip := net.ParseIP(addr)
    if ip == nil {
        return false
    }
    for _, n := range rl.trusted {
        if n.Contains(ip) {
            return true
        }
    }
    return false
}
