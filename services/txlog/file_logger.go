package txlog

import (
    "fmt"
    "os"
    "path/filepath"
    "sync"

    "payment-pipeline-api/models"
    "payment-pipeline-api/services/payment"
)

// FileLogger appends a two-line record per transaction. Writers targeting the
// same path are serialized so the summary and status lines stay paired.
type FileLogger struct {
    defaultPath string

    mu    sync.Mutex
    locks map[string]*sync.Mutex
}

func NewFileLogger(defaultPath string) *FileLogger {
    if defaultPath == "" {
        defaultPath = payment.DefaultLogDestination
    }
    return &FileLogger{
        defaultPath: defaultPath,
        locks:       make(map[string]*sync.Mutex),
    }
}

func FormatRecord(customer models.CustomerData, pay models.PaymentData, charge *models.Charge) string {
    status := ""
    if charge != nil {
        status = charge.Status.String()
    }
    return fmt.Sprintf("%s paid %d\nPayment status: %s\n", customer.Name, pay.Amount, status)
}

func (l *FileLogger) Info(customer models.CustomerData, pay models.PaymentData, charge *models.Charge, destination string) error {
    if destination == "" {
        destination = l.defaultPath
    }

    lock := l.lockFor(destination)
    lock.Lock()
    defer lock.Unlock()

    if err := appendRecord(destination, FormatRecord(customer, pay, charge)); err != nil {
        return &payment.LoggingError{Destination: destination, Err: err}
    }
    return nil
}

func (l *FileLogger) lockFor(destination string) *sync.Mutex {
    key := destination
    if abs, err := filepath.Abs(destination); err == nil {
        key = abs
    }

    l.mu.Lock()
    defer l.mu.Unlock()
    lock, ok := l.locks[key]
    if !ok {
        lock = &sync.Mutex{}
        l.locks[key] = lock
    }
    return lock
}

func appendRecord(path, record string) (err error) {
    f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open: %w", err)
    }
    defer func() {
        if cerr := f.Close(); cerr != nil && err == nil {
            err = fmt.Errorf("close: %w", cerr)
        }
    }()

    if _, err = f.WriteString(record); err != nil {
        return fmt.Errorf("write: %w", err)
    }
    if err = f.Sync(); err != nil {
        return fmt.Errorf("sync: %w", err)
    }
    return nil
}
