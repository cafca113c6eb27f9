// Package auth provides session and access-token utilities.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Session ID format: sess_{64 hex chars}
const (
	SessionIDPrefix    = "sess_"
	SessionSecretBytes = 32
)

var (
	// ErrInvalidSessionID indicates a cookie value that cannot be a session.
	ErrInvalidSessionID = errors.New("invalid session id format")

	sessionIDRegex = regexp.MustCompile(`^sess_[a-f0-9]{64}$`)
)

// NewSessionID returns a fresh, unguessable session identifier.
func NewSessionID() (string, error) {
	b := make([]byte, SessionSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return SessionIDPrefix + hex.EncodeToString(b), nil
}

// ValidateSessionID rejects cookie values that were not minted by NewSessionID.
func ValidateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return ErrInvalidSessionID
	}
	return nil
}

// SessionKey derives the storage key for a session ID so raw cookie
// values never reach Redis.
func SessionKey(id string) string {
	return QuickHash(id)
}
