package models

import "strings"

type ContactInfo struct {
    Email string `json:"email,omitempty"`
    Phone string `json:"phone,omitempty"`
}

func (c ContactInfo) HasEmail() bool {
    return strings.TrimSpace(c.Email) != ""
}

func (c ContactInfo) HasPhone() bool {
    return strings.TrimSpace(c.Phone) != ""
}

// CustomerData is owned by the caller and treated as read-only by the pipeline.
// A nil ContactInfo means the customer supplied no contact object at all.
type CustomerData struct {
    Name        string       `json:"name"`
    ContactInfo *ContactInfo `json:"contact_info"`
}

// PaymentData carries the amount in minor currency units and an opaque token
// for a previously tokenized instrument. Raw card data never enters this type.
type PaymentData struct {
    Amount int64  `json:"amount"`
    Source string `json:"source"`
}
