// Package id issues and checks the 32-hex identifiers used for borrowers
// and notices.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns 16 random bytes as 32 lowercase hex characters.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Valid reports whether s is exactly 32 lowercase hex characters.
func Valid(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
