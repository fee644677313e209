package payment

import (
    "errors"
    "fmt"
)

var (
    ErrValidation   = errors.New("validation error")
    ErrGateway      = errors.New("gateway error")
    ErrNotification = errors.New("notification error")
    ErrLogging      = errors.New("logging error")
)

// ValidationError reports a missing or invalid field before any external call.
type ValidationError struct {
    Field   string
    Message string
}

func NewValidationError(field, message string) *ValidationError {
    return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
    return target == ErrValidation
}

// GatewayError is returned when the payment gateway rejected the charge or
// could not be reached. Code and StatusCode are empty/zero for network errors.
type GatewayError struct {
    Code       string
    Message    string
    StatusCode int
    Err        error
}

func (e *GatewayError) Error() string {
    if e.Code != "" {
        return fmt.Sprintf("payment gateway rejected charge (%s): %s", e.Code, e.Message)
    }
    return fmt.Sprintf("payment gateway failure: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
    return e.Err
}

func (e *GatewayError) Is(target error) bool {
    return target == ErrGateway
}

// IsDecline reports whether the gateway refused the instrument itself rather
// than failing to process the request.
func (e *GatewayError) IsDecline() bool {
    return e.StatusCode == 402
}

// IsRejected reports whether the gateway answered with a 4xx, which means no
// charge was created. A 409 only says a request with the same idempotency key
// is still running. Timeouts, transport errors and 5xx leave it unknown.
func (e *GatewayError) IsRejected() bool {
    return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 409
}

// ChargeNotCreated reports whether err proves the customer was not charged:
// validation failed before the gateway call, or the gateway rejected it.
func ChargeNotCreated(err error) bool {
    var validationErr *ValidationError
    if errors.As(err, &validationErr) {
        return true
    }
    var gatewayErr *GatewayError
    if errors.As(err, &gatewayErr) {
        return gatewayErr.IsRejected()
    }
    return false
}

type NotificationError struct {
    Channel string
    Err     error
}

func (e *NotificationError) Error() string {
    return fmt.Sprintf("failed to send %s notification: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error {
    return e.Err
}

func (e *NotificationError) Is(target error) bool {
    return target == ErrNotification
}

type LoggingError struct {
    Destination string
    Err         error
}

func (e *LoggingError) Error() string {
    return fmt.Sprintf("failed to write transaction log %s: %v", e.Destination, e.Err)
}

func (e *LoggingError) Unwrap() error {
    return e.Err
}

func (e *LoggingError) Is(target error) bool {
    return target == ErrLogging
}
