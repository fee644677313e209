package stripe

import (
    "errors"
    "time"

    "payment-pipeline-api/models"
)

const (
    Currency       = "usd"
    RequestTimeout = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("stripe API key is not configured")

type Config struct {
    APIKey string
    // BaseURL overrides the Stripe API host, mainly for tests and mocks.
    BaseURL string
    Timeout time.Duration
}

func Description(customer models.CustomerData) string {
    return "Charge for " + customer.Name
}
