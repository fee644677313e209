package models

import (
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "io"
)

var ErrMalformedRequest = errors.New("malformed request")

type TransactionRequest struct {
    Customer CustomerData `json:"customer"`
    Payment  PaymentData  `json:"payment"`
}

// DecodeTransactionRequest checks the shape of the body only: known fields,
// integer amount, a single JSON document. Field semantics are left to the
// validators.
func DecodeTransactionRequest(r io.Reader) (*TransactionRequest, error) {
    dec := json.NewDecoder(r)
    dec.DisallowUnknownFields()

    var req TransactionRequest
    if err := dec.Decode(&req); err != nil {
        return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
    }
    if dec.More() {
        return nil, fmt.Errorf("%w: trailing data after request body", ErrMalformedRequest)
    }
    var extra json.RawMessage
    if err := dec.Decode(&extra); err != io.EOF {
        return nil, fmt.Errorf("%w: trailing data after request body", ErrMalformedRequest)
    }

    return &req, nil
}

// Fingerprint hashes the decoded request so that formatting differences in
// the body do not change it.
func (r *TransactionRequest) Fingerprint() string {
    // plain strings and an int64 always marshal
    canonical, _ := json.Marshal(r)
    sum := sha256.Sum256(canonical)
    return hex.EncodeToString(sum[:])
}
