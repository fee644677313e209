package handlers

import (
    "encoding/json"
    "io"
    "log"
    "net/http"
    "strings"

    "payment-pipeline-api/middleware"
    "payment-pipeline-api/models"
    "payment-pipeline-api/services/auth"
    "payment-pipeline-api/utils"
)

const (
    InternalKeyHeader = "X-Internal-Key"
    defaultClientID   = "internal"
)

type AuthHandler struct {
    jwtService  *auth.JWTService
    internalKey string
}

func NewAuthHandler(jwtService *auth.JWTService, internalKey string) *AuthHandler {
    return &AuthHandler{
        jwtService:  jwtService,
        internalKey: internalKey,
    }
}

// IssueToken exchanges the shared internal key for a short-lived access token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
    requestID := middleware.GetRequestID(r.Context())

    if !utils.SecureCompare(r.Header.Get(InternalKeyHeader), h.internalKey) {
        log.Printf("[%s] Invalid or missing internal key from %s", requestID, r.RemoteAddr)
        utils.SendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    var req struct {
        ClientID string `json:"client_id"`
    }
    if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && err != io.EOF {
        log.Printf("[%s] Error decoding token request: %v", requestID, err)
        utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
        return
    }
    clientID := strings.TrimSpace(req.ClientID)
    if clientID == "" {
        clientID = defaultClientID
    }

    token, expiresAt, err := h.jwtService.GenerateToken(clientID)
    if err != nil {
        log.Printf("[%s] Error generating access token: %v", requestID, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to generate access token")
        return
    }

    log.Printf("[%s] Issued access token for client %s", requestID, clientID)
    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: "Token generated successfully",
        Data: models.TokenResponse{
            Token:     token,
            ExpiresAt: expiresAt.Unix(),
        },
    })
}
