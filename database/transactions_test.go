package database

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "payment-pipeline-api/models"
)

func newMock(t *testing.T) (*Connection, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("failed to open sqlmock: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    return NewConnectionWithDB(db), mock
}

func sampleRecord() *models.TransactionRecord {
    return &models.TransactionRecord{
        ID:                  "6f1c1c2e-8c1b-4c55-9d36-3d6f0e5a0c11",
        CustomerName:        "Andres",
        Amount:              123,
        Currency:            "usd",
        ChargeID:            "ch_1",
        Status:              "succeeded",
        NotificationChannel: "email",
        CreatedAt:           time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
    }
}

func TestRecordInsertsRow(t *testing.T) {
    conn, mock := newMock(t)
    rec := sampleRecord()

    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_transactions")).
        WithArgs(rec.ID, rec.CustomerName, rec.Amount, rec.Currency, rec.ChargeID, rec.Status, rec.NotificationChannel, rec.CreatedAt).
        WillReturnResult(sqlmock.NewResult(0, 1))

    if err := conn.Record(context.Background(), rec); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestRecordWrapsDriverError(t *testing.T) {
    conn, mock := newMock(t)
    driverErr := errors.New("connection reset")

    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_transactions")).WillReturnError(driverErr)

    err := conn.Record(context.Background(), sampleRecord())
    if !errors.Is(err, driverErr) {
        t.Fatalf("expected wrapped driver error, got %v", err)
    }
}

func TestGetTransaction(t *testing.T) {
    conn, mock := newMock(t)
    rec := sampleRecord()

    rows := sqlmock.NewRows([]string{"id", "customer_name", "amount", "currency", "charge_id", "status", "notification_channel", "created_at"}).
        AddRow(rec.ID, rec.CustomerName, rec.Amount, rec.Currency, rec.ChargeID, rec.Status, rec.NotificationChannel, rec.CreatedAt)
    mock.ExpectQuery(regexp.QuoteMeta("FROM payment_transactions")).WithArgs(rec.ID).WillReturnRows(rows)

    got, err := conn.GetTransaction(context.Background(), rec.ID)
    if err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    if *got != *rec {
        t.Fatalf("expected %+v, got %+v", rec, got)
    }
}

func TestGetTransactionNotFound(t *testing.T) {
    conn, mock := newMock(t)

    mock.ExpectQuery(regexp.QuoteMeta("FROM payment_transactions")).WithArgs("missing").
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err := conn.GetTransaction(context.Background(), "missing")
    if !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestEnsureSchema(t *testing.T) {
    conn, mock := newMock(t)

    mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS payment_transactions")).
        WillReturnResult(sqlmock.NewResult(0, 0))

    if err := conn.EnsureSchema(context.Background()); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
}

func TestDSN(t *testing.T) {
    cfg := DatabaseConfig{Host: "db:3306", User: "u", Password: "p", DBName: "payments"}
    if got := cfg.DSN(); got != "u:p@tcp(db:3306)/payments?parseTime=true&loc=UTC" {
        t.Fatalf("unexpected dsn %s", got)
    }
    if !cfg.Enabled() {
        t.Fatalf("expected config to be enabled")
    }
    if (DatabaseConfig{}).Enabled() {
        t.Fatalf("expected empty config to be disabled")
    }
}
