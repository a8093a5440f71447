package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// stateBytes is the entropy of a CSRF state token
const stateBytes = 32

// GenerateState returns an unguessable, URL-safe state token
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func statesEqual(stored, returned string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) == 1
}
