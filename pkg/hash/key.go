package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Hash produces a bcrypt hash of an admin key for storage in configuration.
func Hash(key string) (string, error) {
	if len(key) < 8 {
		return "", fmt.Errorf("key must be at least 8 characters")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}

	return string(hashedBytes), nil
}

// Compare checks a presented key against its stored bcrypt hash.
func Compare(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}
