package model

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecureToken creates a secure random token string, used for
// single-use password reset tokens
func GenerateSecureToken() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
