package api

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// IDs are a short prefix plus 24 random alphanumerics, e.g.
// "ses_k3J9mQ2xB7fLpR5wN8dT4zYc". The prefix tells logs and humans what
// kind of thing the ID names.
const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 24
)

// NewSessionID returns a fresh "ses_" identifier.
func NewSessionID() string { return newID("ses_") }

// NewMealID returns a fresh "meal_" identifier.
func NewMealID() string { return newID("meal_") }

// ValidateSessionID reports whether id is a well-formed session ID.
func ValidateSessionID(id string) bool { return validID(id, "ses_") }

// ValidateMealID reports whether id is a well-formed meal ID.
func ValidateMealID(id string) bool { return validID(id, "meal_") }

func newID(prefix string) string {
	max := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return prefix + string(b)
}

func validID(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || len(rest) != idLength {
		return false
	}
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
