// Package tokenminter issues the rolling session credentials handed to
// students. A token is a CSPRNG-backed, URL-safe string long enough that
// guessing it is infeasible; collisions on insertion are treated by the
// caller as retryable rather than fatal.
package tokenminter

import (
	"crypto/rand"
	"encoding/base32"
)

// minEntropyBytes is chosen so the base32 encoding below clears the spec's
// 43-character floor with room to spare (32 bytes -> 52 chars, 256 bits).
const minEntropyBytes = 32

// Minter mints session tokens. It holds no state; New is safe for concurrent
// use from any number of goroutines.
type Minter struct{}

// New constructs a Minter.
func New() *Minter {
	return &Minter{}
}

// Mint returns a fresh, URL-safe token of at least 43 characters drawn from
// a cryptographically secure random source.
func (m *Minter) Mint() (string, error) {
	buf := make([]byte, minEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.HexEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
