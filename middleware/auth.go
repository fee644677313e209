package middleware

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strings"

    "payment-pipeline-api/services/auth"
    "payment-pipeline-api/utils"
)

type contextKey string

const ClientContextKey contextKey = "client"

// AuthMiddleware requires a valid Bearer access token.
func AuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            authHeader := r.Header.Get("Authorization")
            if authHeader == "" {
                log.Printf("[%s] Missing Authorization header from %s", GetRequestID(r.Context()), r.RemoteAddr)
                utils.SendErrorResponse(w, http.StatusUnauthorized, "Missing authorization header")
                return
            }

            parts := strings.Split(authHeader, " ")
            if len(parts) != 2 || parts[0] != "Bearer" {
                log.Printf("[%s] Invalid Authorization header format from %s", GetRequestID(r.Context()), r.RemoteAddr)
                utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid authorization header format")
                return
            }

            claims, err := jwtService.ValidateToken(parts[1])
            if err != nil {
                log.Printf("[%s] Token validation failed from %s: %v", GetRequestID(r.Context()), r.RemoteAddr, err)

                message := "Authentication failed"
                switch {
                case errors.Is(err, auth.ErrTokenExpired):
                    message = "Token expired"
                case errors.Is(err, auth.ErrInvalidToken):
                    message = "Invalid token"
                }
                utils.SendErrorResponse(w, http.StatusUnauthorized, message)
                return
            }

            ctx := context.WithValue(r.Context(), ClientContextKey, claims.ClientID)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

func GetClientFromContext(ctx context.Context) string {
    client, _ := ctx.Value(ClientContextKey).(string)
    return client
}
