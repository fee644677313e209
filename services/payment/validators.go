package payment

import (
    "strings"

    "payment-pipeline-api/models"
)

type customerValidator struct{}

func NewCustomerValidator() CustomerValidator {
    return customerValidator{}
}

func (customerValidator) Validate(customer models.CustomerData) error {
    if strings.TrimSpace(customer.Name) == "" {
        return NewValidationError("customer data", "missing name")
    }
    if customer.ContactInfo == nil {
        return NewValidationError("customer data", "missing contact info")
    }
    return nil
}

type paymentValidator struct{}

func NewPaymentValidator() PaymentValidator {
    return paymentValidator{}
}

func (paymentValidator) Validate(payment models.PaymentData) error {
    if strings.TrimSpace(payment.Source) == "" {
        return NewValidationError("payment data", "missing source")
    }
    if payment.Amount <= 0 {
        return NewValidationError("payment data", "amount must be positive")
    }
    return nil
}
