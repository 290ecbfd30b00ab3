package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minTokenLength = 16
	bearerPrefix   = "bearer "
)

// ValidateToken checks minimal API token requirements.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) != token {
		return fmt.Errorf("token must not have surrounding whitespace")
	}
	if len(token) < minTokenLength {
		return fmt.Errorf("token must be at least %d characters", minTokenLength)
	}
	return nil
}

// HashToken hashes one plaintext API token for the api_token_hash config key.
func HashToken(token string) (string, error) {
	if err := ValidateToken(token); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyToken verifies a plaintext token against a bcrypt hash.
func VerifyToken(tokenHash, candidate string) bool {
	if strings.TrimSpace(tokenHash) == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(candidate)) == nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
