package utils

import (
    "crypto/rand"
    "crypto/subtle"
    "fmt"
    "math/big"
)

func GenerateRandomString(length int) (string, error) {
    const charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
    result := make([]byte, length)
    for i := range result {
        n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
        if err != nil {
            return "", fmt.Errorf("failed to generate random string: %w", err)
        }
        result[i] = charset[n.Int64()]
    }
    return string(result), nil
}

// SecureCompare compares two secrets in constant time. Empty values never match.
func SecureCompare(a, b string) bool {
    if a == "" || b == "" {
        return false
    }
    return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
