package idempotency

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "sync"
    "time"

    "payment-pipeline-api/models"
)

const (
    statusProcessing = "processing"
    statusSuccess    = "success"
    statusUnknown    = "unknown"

    DefaultTTL = 24 * time.Hour
    // UnknownHold is how long a key stays locked after a charge attempt whose
    // outcome the gateway never confirmed.
    UnknownHold = time.Minute

    pruneInterval = time.Minute
)

var (
    ErrInProgress     = errors.New("idempotency key is already being processed")
    ErrKeyMismatch    = errors.New("idempotency key was used with a different request")
    ErrOutcomeUnknown = errors.New("outcome of the previous attempt for this idempotency key is unknown")
)

// Result is what a completed request stored under its key.
type Result struct {
    TransactionID string         `json:"transaction_id"`
    Charge        *models.Charge `json:"charge"`
}

// Store guards POST retries. Reserve returns a stored Result for a finished
// key, ErrInProgress for a key in flight, ErrOutcomeUnknown while an
// unconfirmed attempt is held, ErrKeyMismatch when the key was taken by a
// request with another fingerprint, or nil, nil after reserving it.
type Store interface {
    Reserve(ctx context.Context, key, fingerprint string) (*Result, error)
    MarkSuccess(ctx context.Context, key, fingerprint string, result *Result) error
    // MarkUnknown holds the key for UnknownHold after the gateway may or may
    // not have charged. A retry after the hold reuses the same gateway key.
    MarkUnknown(ctx context.Context, key, fingerprint string) error
    // MarkFailure releases the key. Only call it when no charge was created.
    MarkFailure(ctx context.Context, key string) error
}

// GatewayKey derives the idempotency key forwarded to the payment gateway.
// The same client key and request body always map to the same value.
func GatewayKey(key, fingerprint string) string {
    sum := sha256.Sum256([]byte(key + "\x00" + fingerprint))
    return "ppa_" + hex.EncodeToString(sum[:])
}

type state struct {
    Status      string  `json:"status"`
    Fingerprint string  `json:"fingerprint"`
    Result      *Result `json:"result,omitempty"`
    expiresAt   time.Time
}

// check maps an existing entry to the Reserve outcome.
func (s *state) check(fingerprint string) (*Result, error) {
    if s.Fingerprint != fingerprint {
        return nil, ErrKeyMismatch
    }
    switch s.Status {
    case statusSuccess:
        return s.Result, nil
    case statusUnknown:
        return nil, ErrOutcomeUnknown
    default:
        return nil, ErrInProgress
    }
}

type MemoryStore struct {
    mutex     sync.Mutex
    keys      map[string]*state
    ttl       time.Duration
    now       func() time.Time
    lastPrune time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    return &MemoryStore{
        keys: make(map[string]*state),
        ttl:  ttl,
        now:  time.Now,
    }
}

func (m *MemoryStore) Reserve(ctx context.Context, key, fingerprint string) (*Result, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    m.mutex.Lock()
    defer m.mutex.Unlock()

    now := m.now()
    m.prune(now)

    if s, exists := m.keys[key]; exists && now.Before(s.expiresAt) {
        return s.check(fingerprint)
    }

    m.keys[key] = &state{Status: statusProcessing, Fingerprint: fingerprint, expiresAt: now.Add(m.ttl)}
    return nil, nil
}

func (m *MemoryStore) MarkSuccess(ctx context.Context, key, fingerprint string, result *Result) error {
    m.mutex.Lock()
    defer m.mutex.Unlock()

    m.keys[key] = &state{Status: statusSuccess, Fingerprint: fingerprint, Result: result, expiresAt: m.now().Add(m.ttl)}
    return nil
}

func (m *MemoryStore) MarkUnknown(ctx context.Context, key, fingerprint string) error {
    m.mutex.Lock()
    defer m.mutex.Unlock()

    m.keys[key] = &state{Status: statusUnknown, Fingerprint: fingerprint, expiresAt: m.now().Add(UnknownHold)}
    return nil
}

func (m *MemoryStore) MarkFailure(ctx context.Context, key string) error {
    m.mutex.Lock()
    defer m.mutex.Unlock()
    delete(m.keys, key)
    return nil
}

// prune drops expired keys at most once per pruneInterval. Callers hold the mutex.
func (m *MemoryStore) prune(now time.Time) {
    if now.Sub(m.lastPrune) < pruneInterval {
        return
    }
    m.lastPrune = now
    for key, s := range m.keys {
        if !now.Before(s.expiresAt) {
            delete(m.keys, key)
        }
    }
}
