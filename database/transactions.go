package database

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "time"

    "payment-pipeline-api/models"
)

var ErrNotFound = errors.New("transaction not found")

const queryTimeout = 5 * time.Second

const createTransactionsTable = `
    CREATE TABLE IF NOT EXISTS payment_transactions (
        id VARCHAR(36) NOT NULL PRIMARY KEY,
        customer_name VARCHAR(255) NOT NULL,
        amount BIGINT NOT NULL,
        currency VARCHAR(3) NOT NULL,
        charge_id VARCHAR(255) NOT NULL,
        status VARCHAR(32) NOT NULL,
        notification_channel VARCHAR(16) NOT NULL,
        created_at DATETIME(6) NOT NULL
    )`

// EnsureSchema creates the ledger table when it does not exist.
func (c *Connection) EnsureSchema(ctx context.Context) error {
    ctx, cancel := context.WithTimeout(ctx, queryTimeout)
    defer cancel()

    if _, err := c.db.ExecContext(ctx, createTransactionsTable); err != nil {
        return fmt.Errorf("error creating payment_transactions table: %w", err)
    }
    return nil
}

// Record inserts one completed transaction into the ledger.
func (c *Connection) Record(ctx context.Context, rec *models.TransactionRecord) error {
    if rec == nil {
        return fmt.Errorf("transaction record is required")
    }

    ctx, cancel := context.WithTimeout(ctx, queryTimeout)
    defer cancel()

    _, err := c.db.ExecContext(ctx, `
        INSERT INTO payment_transactions
            (id, customer_name, amount, currency, charge_id, status, notification_channel, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, rec.ID, rec.CustomerName, rec.Amount, rec.Currency, rec.ChargeID, rec.Status, rec.NotificationChannel, rec.CreatedAt)
    if err != nil {
        return fmt.Errorf("error saving transaction %s: %w", rec.ID, err)
    }

    log.Printf("Transaction %s recorded in ledger", rec.ID)
    return nil
}

func (c *Connection) GetTransaction(ctx context.Context, id string) (*models.TransactionRecord, error) {
    ctx, cancel := context.WithTimeout(ctx, queryTimeout)
    defer cancel()

    var rec models.TransactionRecord
    err := c.db.QueryRowContext(ctx, `
        SELECT id, customer_name, amount, currency, charge_id, status, notification_channel, created_at
        FROM payment_transactions
        WHERE id = ?
    `, id).Scan(
        &rec.ID,
        &rec.CustomerName,
        &rec.Amount,
        &rec.Currency,
        &rec.ChargeID,
        &rec.Status,
        &rec.NotificationChannel,
        &rec.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, fmt.Errorf("error getting transaction %s: %w", id, err)
    }

    return &rec, nil
}
