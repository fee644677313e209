package models

type APIResponse struct {
    Status  string      `json:"status"`
    Message string      `json:"message"`
    Data    interface{} `json:"data,omitempty"`
}

type TransactionResponse struct {
    TransactionID string `json:"transaction_id"`
    ChargeID      string `json:"charge_id"`
    Status        string `json:"status"`
    Description   string `json:"description"`
    Amount        int64  `json:"amount"`
    DisplayAmount string `json:"display_amount"`
    Currency      string `json:"currency"`
    IsReplay      bool   `json:"is_replay,omitempty"`
}

type TokenResponse struct {
    Token     string `json:"token"`
    ExpiresAt int64  `json:"expires_at"`
}
