package auth

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

const AccessTokenDuration = 15 * time.Minute

var (
    ErrTokenExpired = errors.New("token expired")
    ErrInvalidToken = errors.New("invalid token")
)

type JWTService struct {
    secretKey []byte
    issuer    string
    duration  time.Duration
    now       func() time.Time
}

type Claims struct {
    ClientID string `json:"client_id"`
    jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string) (*JWTService, error) {
    if strings.TrimSpace(secretKey) == "" {
        return nil, fmt.Errorf("jwt secret is required")
    }
    return &JWTService{
        secretKey: []byte(secretKey),
        issuer:    issuer,
        duration:  AccessTokenDuration,
        now:       time.Now,
    }, nil
}

// GenerateToken issues an HS256 access token for an internal client.
func (j *JWTService) GenerateToken(clientID string) (string, time.Time, error) {
    now := j.now()
    expiresAt := now.Add(j.duration)

    claims := Claims{
        ClientID: clientID,
        RegisteredClaims: jwt.RegisteredClaims{
            Issuer:    j.issuer,
            Subject:   clientID,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(expiresAt),
            NotBefore: jwt.NewNumericDate(now),
        },
    }

    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := token.SignedString(j.secretKey)
    if err != nil {
        return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
    }
    return signed, expiresAt, nil
}

func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
    token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return j.secretKey, nil
    }, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.now))
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrInvalidToken
    }

    claims, ok := token.Claims.(*Claims)
    if !ok || !token.Valid || claims.ClientID == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
