package stripe

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    stripego "github.com/stripe/stripe-go/v76"
    "github.com/stripe/stripe-go/v76/client"

    "payment-pipeline-api/models"
    "payment-pipeline-api/services/payment"
)

// Client charges tokenized sources through the Stripe API. Network retries are
// disabled so each Charge call reaches Stripe at most once.
type Client struct {
    api     *client.API
    timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
    if cfg.APIKey == "" {
        return nil, ErrMissingAPIKey
    }

    timeout := cfg.Timeout
    if timeout <= 0 {
        timeout = RequestTimeout
    }

    transport := &http.Transport{
        MaxIdleConns:        100,
        MaxIdleConnsPerHost: 20,
        IdleConnTimeout:     90 * time.Second,
        TLSHandshakeTimeout: 10 * time.Second,
    }
    httpClient := &http.Client{
        Timeout:   timeout,
        Transport: transport,
    }

    newBackend := func(backendType stripego.SupportedBackend) stripego.Backend {
        backendConfig := &stripego.BackendConfig{
            HTTPClient:        httpClient,
            MaxNetworkRetries: stripego.Int64(0),
            LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelError},
        }
        if cfg.BaseURL != "" {
            backendConfig.URL = stripego.String(cfg.BaseURL)
        }
        return stripego.GetBackendWithConfig(backendType, backendConfig)
    }

    backends := &stripego.Backends{
        API:     newBackend(stripego.APIBackend),
        Connect: newBackend(stripego.ConnectBackend),
        Uploads: newBackend(stripego.UploadsBackend),
    }

    return &Client{
        api:     client.New(cfg.APIKey, backends),
        timeout: timeout,
    }, nil
}

func (c *Client) Charge(ctx context.Context, customer models.CustomerData, pay models.PaymentData) (*models.Charge, error) {
    startTime := time.Now()

    ctx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()

    params := &stripego.ChargeParams{
        Amount:      stripego.Int64(pay.Amount),
        Currency:    stripego.String(Currency),
        Description: stripego.String(Description(customer)),
    }
    params.Context = ctx
    if err := params.SetSource(pay.Source); err != nil {
        return nil, &payment.GatewayError{Message: "invalid payment source", Err: err}
    }
    if key := payment.IdempotencyKeyFromContext(ctx); key != "" {
        params.SetIdempotencyKey(key)
    }

    log.Printf("Sending charge request to Stripe for %s", customer.Name)

    ch, err := c.api.Charges.New(params)
    if err != nil {
        gatewayErr := toGatewayError(ctx, err)
        log.Printf("Stripe charge failed after %v: %v", time.Since(startTime), gatewayErr)
        return nil, gatewayErr
    }

    log.Printf("Stripe response received in %v: charge %s status %s", time.Since(startTime), ch.ID, ch.Status)

    return &models.Charge{
        ID:          ch.ID,
        Status:      models.ChargeStatus(ch.Status),
        Description: ch.Description,
        Amount:      ch.Amount,
        Currency:    string(ch.Currency),
    }, nil
}

func toGatewayError(ctx context.Context, err error) *payment.GatewayError {
    var stripeErr *stripego.Error
    if errors.As(err, &stripeErr) {
        code := string(stripeErr.Code)
        if code == "" {
            code = string(stripeErr.Type)
        }
        return &payment.GatewayError{
            Code:       code,
            Message:    stripeErr.Msg,
            StatusCode: stripeErr.HTTPStatusCode,
            Err:        err,
        }
    }

    if errors.Is(ctx.Err(), context.DeadlineExceeded) {
        return &payment.GatewayError{Message: "request to payment gateway timed out", Err: err}
    }
    return &payment.GatewayError{Message: err.Error(), Err: err}
}
