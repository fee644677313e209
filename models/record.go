package models

import "time"

// TransactionRecord is the ledger row written after a completed transaction.
type TransactionRecord struct {
    ID                  string    `json:"id"`
    CustomerName        string    `json:"customer_name"`
    Amount              int64     `json:"amount"`
    Currency            string    `json:"currency"`
    ChargeID            string    `json:"charge_id"`
    Status              string    `json:"status"`
    NotificationChannel string    `json:"notification_channel"`
    CreatedAt           time.Time `json:"created_at"`
}
