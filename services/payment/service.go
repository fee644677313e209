package payment

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"
    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/trace"

    "payment-pipeline-api/metrics"
    "payment-pipeline-api/models"
    "payment-pipeline-api/types"
)

const DefaultLogDestination = "transactions.log"

var tracer = otel.Tracer("payment-pipeline-api/services/payment")

type Service struct {
    customerValidator CustomerValidator
    paymentValidator  PaymentValidator
    gateway           Gateway
    notifier          Notifier
    logger            TransactionLogger
    ledger            Ledger
    logDestination    string
    now               func() time.Time
}

type Option func(*Service)

type (
    transactionIDKey  struct{}
    idempotencyKeyKey struct{}
)

// WithTransactionID fixes the ledger id for the transaction run under ctx.
func WithTransactionID(ctx context.Context, id string) context.Context {
    return context.WithValue(ctx, transactionIDKey{}, id)
}

// TransactionIDFromContext returns the id set by WithTransactionID, or "".
func TransactionIDFromContext(ctx context.Context) string {
    id, _ := ctx.Value(transactionIDKey{}).(string)
    return id
}

// WithIdempotencyKey sets the key the gateway uses to collapse repeated
// charge requests into one charge.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
    return context.WithValue(ctx, idempotencyKeyKey{}, key)
}

func IdempotencyKeyFromContext(ctx context.Context) string {
    key, _ := ctx.Value(idempotencyKeyKey{}).(string)
    return key
}

// WithLedger records every completed transaction in addition to the log file.
func WithLedger(l Ledger) Option {
    return func(s *Service) {
        s.ledger = l
    }
}

// WithLogDestination changes the file used when a call passes an empty destination.
func WithLogDestination(path string) Option {
    return func(s *Service) {
        if path != "" {
            s.logDestination = path
        }
    }
}

func NewService(cv CustomerValidator, pv PaymentValidator, gw Gateway, n Notifier, l TransactionLogger, opts ...Option) (*Service, error) {
    if cv == nil {
        return nil, fmt.Errorf("customer validator is required")
    }
    if pv == nil {
        return nil, fmt.Errorf("payment validator is required")
    }
    if gw == nil {
        return nil, fmt.Errorf("payment gateway is required")
    }
    if n == nil {
        return nil, fmt.Errorf("notifier is required")
    }
    if l == nil {
        return nil, fmt.Errorf("transaction logger is required")
    }

    s := &Service{
        customerValidator: cv,
        paymentValidator:  pv,
        gateway:           gw,
        notifier:          n,
        logger:            l,
        logDestination:    DefaultLogDestination,
        now:               time.Now,
    }
    for _, opt := range opts {
        opt(s)
    }
    return s, nil
}

type transaction struct {
    state types.TransactionState
}

func (t *transaction) advance(next types.TransactionState) {
    state, err := t.state.Transition(next)
    if err != nil {
        log.Printf("Warning: %v", err)
        return
    }
    t.state = state
}

// ProcessTransaction runs validate -> charge -> notify -> log. Validation and
// gateway errors abort and are returned as-is. Once the charge succeeded the
// charge is always returned: notification, log and ledger failures are only
// reported.
func (s *Service) ProcessTransaction(ctx context.Context, customer models.CustomerData, payment models.PaymentData, logDestination string) (*models.Charge, error) {
    ctx, span := tracer.Start(ctx, "payment.ProcessTransaction")
    defer span.End()

    if logDestination == "" {
        logDestination = s.logDestination
    }
    tx := &transaction{state: types.StateStart}

    if err := s.customerValidator.Validate(customer); err != nil {
        return nil, s.fail(tx, span, err)
    }
    tx.advance(types.StateCustomerValidated)

    if err := s.paymentValidator.Validate(payment); err != nil {
        return nil, s.fail(tx, span, err)
    }
    tx.advance(types.StatePaymentValidated)

    charge, err := s.charge(ctx, customer, payment)
    if err != nil {
        log.Printf("Payment failed for %s: %v", customer.Name, err)
        return nil, s.fail(tx, span, err)
    }
    tx.advance(types.StateCharged)
    log.Printf("Payment successful for %s: charge %s status %s", customer.Name, charge.ID, charge.Status)

    contact := models.ContactInfo{}
    if customer.ContactInfo != nil {
        contact = *customer.ContactInfo
    }
    s.notify(ctx, contact)
    tx.advance(types.StateNotified)

    s.record(ctx, customer, payment, charge, contact, logDestination)
    tx.advance(types.StateLogged)

    tx.advance(types.StateDone)
    metrics.TransactionsTotal.WithLabelValues("done", tx.state.String()).Inc()
    span.SetAttributes(attribute.String("payment.charge_status", charge.Status.String()))
    return charge, nil
}

func (s *Service) charge(ctx context.Context, customer models.CustomerData, payment models.PaymentData) (*models.Charge, error) {
    ctx, span := tracer.Start(ctx, "payment.gateway.Charge")
    defer span.End()
    span.SetAttributes(attribute.Int64("payment.amount", payment.Amount))

    start := time.Now()
    charge, err := s.gateway.Charge(ctx, customer, payment)
    if err == nil && charge == nil {
        err = &GatewayError{Message: "gateway returned no charge"}
    }

    result := "success"
    if err != nil {
        result = "error"
        span.RecordError(err)
        span.SetStatus(codes.Error, err.Error())
    }
    metrics.GatewayDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
    return charge, err
}

func (s *Service) notify(ctx context.Context, contact models.ContactInfo) {
    ctx, span := tracer.Start(ctx, "payment.notify")
    defer span.End()

    if err := s.notifier.Send(ctx, contact); err != nil {
        var notificationErr *NotificationError
        if !errors.As(err, &notificationErr) {
            err = &NotificationError{Channel: s.channel(contact).String(), Err: err}
        }
        span.RecordError(err)
        metrics.NotificationFailures.Inc()
        log.Printf("Warning: %v", err)
    }
}

func (s *Service) record(ctx context.Context, customer models.CustomerData, payment models.PaymentData, charge *models.Charge, contact models.ContactInfo, destination string) {
    ctx, span := tracer.Start(ctx, "payment.log")
    defer span.End()

    if err := s.logger.Info(customer, payment, charge, destination); err != nil {
        var loggingErr *LoggingError
        if !errors.As(err, &loggingErr) {
            err = &LoggingError{Destination: destination, Err: err}
        }
        span.RecordError(err)
        metrics.LogFailures.WithLabelValues("file").Inc()
        log.Printf("Warning: %v", err)
    }

    if s.ledger == nil {
        return
    }
    id := TransactionIDFromContext(ctx)
    if id == "" {
        id = uuid.New().String()
    }
    rec := &models.TransactionRecord{
        ID:                  id,
        CustomerName:        customer.Name,
        Amount:              payment.Amount,
        Currency:            charge.Currency,
        ChargeID:            charge.ID,
        Status:              charge.Status.String(),
        NotificationChannel: s.channel(contact).String(),
        CreatedAt:           s.now().UTC(),
    }
    if err := s.ledger.Record(ctx, rec); err != nil {
        span.RecordError(err)
        metrics.LogFailures.WithLabelValues("ledger").Inc()
        log.Printf("Warning: failed to record transaction %s in ledger: %v", rec.ID, err)
        return
    }
    span.SetAttributes(attribute.String("payment.transaction_id", rec.ID))
}

func (s *Service) channel(contact models.ContactInfo) types.NotificationChannel {
    if selector, ok := s.notifier.(ChannelSelector); ok {
        return selector.Channel(contact)
    }
    return types.ChannelNone
}

func (s *Service) fail(tx *transaction, span trace.Span, err error) error {
    failedAt := tx.state
    tx.advance(types.StateFailed)
    metrics.TransactionsTotal.WithLabelValues("failed", failedAt.String()).Inc()
    span.RecordError(err)
    span.SetStatus(codes.Error, err.Error())
    return err
}
