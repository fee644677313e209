package txlog

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "testing"

    "payment-pipeline-api/models"
    "payment-pipeline-api/services/payment"
)

func testRecord() (models.CustomerData, models.PaymentData, *models.Charge) {
    customer := models.CustomerData{Name: "Andres", ContactInfo: &models.ContactInfo{Email: "andres@example.com"}}
    pay := models.PaymentData{Amount: 123, Source: "tok_visa"}
    charge := &models.Charge{Status: models.ChargeStatusSucceeded, Description: "Charge for Andres", Amount: 123}
    return customer, pay, charge
}

func readLines(t *testing.T, path string) []string {
    t.Helper()
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("failed to read log: %v", err)
    }
    return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestInfoWritesSummaryAndStatus(t *testing.T) {
    path := filepath.Join(t.TempDir(), "transactions.log")
    l := NewFileLogger(path)
    customer, pay, charge := testRecord()

    if err := l.Info(customer, pay, charge, ""); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }

    lines := readLines(t, path)
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
    }
    if lines[0] != "Andres paid 123" {
        t.Fatalf("expected summary line, got %q", lines[0])
    }
    if lines[1] != "Payment status: succeeded" {
        t.Fatalf("expected status line, got %q", lines[1])
    }
}

func TestInfoAppendsWithoutDedup(t *testing.T) {
    path := filepath.Join(t.TempDir(), "transactions.log")
    l := NewFileLogger("")
    customer, pay, charge := testRecord()

    for i := 0; i < 2; i++ {
        if err := l.Info(customer, pay, charge, path); err != nil {
            t.Fatalf("expected nil error, got %v", err)
        }
    }

    lines := readLines(t, path)
    want := []string{"Andres paid 123", "Payment status: succeeded", "Andres paid 123", "Payment status: succeeded"}
    if len(lines) != len(want) {
        t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
    }
    for i := range want {
        if lines[i] != want[i] {
            t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
        }
    }
}

func TestInfoConcurrentWritersKeepRecordsPaired(t *testing.T) {
    path := filepath.Join(t.TempDir(), "transactions.log")
    l := NewFileLogger(path)

    const writers = 50
    var wg sync.WaitGroup
    for i := 0; i < writers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            customer := models.CustomerData{Name: fmt.Sprintf("customer-%d", i), ContactInfo: &models.ContactInfo{}}
            pay := models.PaymentData{Amount: int64(i + 1), Source: "tok"}
            charge := &models.Charge{Status: models.ChargeStatusSucceeded}
            if err := l.Info(customer, pay, charge, ""); err != nil {
                t.Errorf("writer %d: %v", i, err)
            }
        }(i)
    }
    wg.Wait()

    lines := readLines(t, path)
    if len(lines) != writers*2 {
        t.Fatalf("expected %d lines, got %d", writers*2, len(lines))
    }
    for i := 0; i < len(lines); i += 2 {
        if !strings.Contains(lines[i], " paid ") {
            t.Fatalf("line %d: expected summary line, got %q", i, lines[i])
        }
        if lines[i+1] != "Payment status: succeeded" {
            t.Fatalf("line %d: expected status line, got %q", i+1, lines[i+1])
        }
    }
}

func TestInfoReportsLoggingError(t *testing.T) {
    l := NewFileLogger("")
    customer, pay, charge := testRecord()
    missingDir := filepath.Join(t.TempDir(), "missing", "transactions.log")

    err := l.Info(customer, pay, charge, missingDir)
    if err == nil {
        t.Fatalf("expected error writing into a missing directory")
    }
    if !errors.Is(err, payment.ErrLogging) {
        t.Fatalf("expected ErrLogging, got %v", err)
    }
}

func TestNewFileLoggerDefaultPath(t *testing.T) {
    l := NewFileLogger("")
    if l.defaultPath != "transactions.log" {
        t.Fatalf("expected default transactions.log, got %s", l.defaultPath)
    }
}
