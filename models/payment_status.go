package models

type ChargeStatus string

const (
    ChargeStatusSucceeded ChargeStatus = "succeeded"
    ChargeStatusPending   ChargeStatus = "pending"
    ChargeStatusFailed    ChargeStatus = "failed"
)

func (cs ChargeStatus) String() string {
    return string(cs)
}

func (cs ChargeStatus) IsValid() bool {
    return cs == ChargeStatusSucceeded || cs == ChargeStatusPending || cs == ChargeStatusFailed
}

// Charge is the gateway's answer for a single payment attempt.
type Charge struct {
    ID          string       `json:"id"`
    Status      ChargeStatus `json:"status"`
    Description string       `json:"description"`
    Amount      int64        `json:"amount"`
    Currency    string       `json:"currency"`
}
