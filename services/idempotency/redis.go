package idempotency

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/go-redis/redis/v8"
)

const keyPrefix = "idempotency:transaction:"

type RedisStore struct {
    client *redis.Client
    ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(idempotencyKey string) string {
    return keyPrefix + idempotencyKey
}

func (r *RedisStore) Reserve(ctx context.Context, idempotencyKey, fingerprint string) (*Result, error) {
    k := r.key(idempotencyKey)
    processing, err := json.Marshal(state{Status: statusProcessing, Fingerprint: fingerprint})
    if err != nil {
        return nil, err
    }

    for {
        if err := ctx.Err(); err != nil {
            return nil, err
        }

        reserved, err := r.client.SetNX(ctx, k, processing, r.ttl).Result()
        if err != nil {
            return nil, fmt.Errorf("redis setnx: %w", err)
        }
        if reserved {
            return nil, nil
        }

        data, err := r.client.Get(ctx, k).Bytes()
        if err == redis.Nil {
            // expired between SETNX and GET
            continue
        }
        if err != nil {
            return nil, fmt.Errorf("redis get: %w", err)
        }

        var s state
        if err := json.Unmarshal(data, &s); err != nil {
            return nil, fmt.Errorf("redis unmarshal: %w", err)
        }

        switch s.Status {
        case statusSuccess, statusProcessing, statusUnknown:
            return s.check(fingerprint)
        default:
            if err := r.client.Del(ctx, k).Err(); err != nil {
                return nil, fmt.Errorf("redis del: %w", err)
            }
        }
    }
}

func (r *RedisStore) MarkSuccess(ctx context.Context, idempotencyKey, fingerprint string, result *Result) error {
    return r.set(ctx, idempotencyKey, state{Status: statusSuccess, Fingerprint: fingerprint, Result: result}, r.ttl)
}

func (r *RedisStore) MarkUnknown(ctx context.Context, idempotencyKey, fingerprint string) error {
    return r.set(ctx, idempotencyKey, state{Status: statusUnknown, Fingerprint: fingerprint}, UnknownHold)
}

func (r *RedisStore) set(ctx context.Context, idempotencyKey string, s state, ttl time.Duration) error {
    raw, err := json.Marshal(s)
    if err != nil {
        return err
    }
    if err := r.client.Set(ctx, r.key(idempotencyKey), raw, ttl).Err(); err != nil {
        return fmt.Errorf("redis set: %w", err)
    }
    return nil
}

func (r *RedisStore) MarkFailure(ctx context.Context, idempotencyKey string) error {
    if err := r.client.Del(ctx, r.key(idempotencyKey)).Err(); err != nil {
        return fmt.Errorf("redis del: %w", err)
    }
    return nil
}
