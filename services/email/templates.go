package email

const (
    DefaultFromAddress = "no-reply@example.com"

    ConfirmationSubject = "Payment Confirmation"
    ConfirmationBody    = "Thank you for your payment."
)
