// Package random provides cryptographically random byte generation, used by
// pkg/identifier to seed collision-resistant run identifiers.
package random

import (
	"crypto/rand"
	"fmt"
)

// New returns a byte slice of the specified length with cryptographically
// random contents.
func New(length int) ([]byte, error) {
	result := make([]byte, length)
	if _, err := rand.Read(result); err != nil {
		return nil, fmt.Errorf("unable to read random data: %w", err)
	}
	return result, nil
}
