package payment

import (
    "context"

    "payment-pipeline-api/models"
    "payment-pipeline-api/types"
)

type CustomerValidator interface {
    Validate(customer models.CustomerData) error
}

type PaymentValidator interface {
    Validate(payment models.PaymentData) error
}

// Gateway performs the one call with real monetary side effects. It must not
// retry on its own.
type Gateway interface {
    Charge(ctx context.Context, customer models.CustomerData, payment models.PaymentData) (*models.Charge, error)
}

type Notifier interface {
    Send(ctx context.Context, contact models.ContactInfo) error
}

// ChannelSelector is implemented by notifiers that can say which channel a
// contact would be reached on.
type ChannelSelector interface {
    Channel(contact models.ContactInfo) types.NotificationChannel
}

type TransactionLogger interface {
    Info(customer models.CustomerData, payment models.PaymentData, charge *models.Charge, destination string) error
}

type Ledger interface {
    Record(ctx context.Context, record *models.TransactionRecord) error
}
