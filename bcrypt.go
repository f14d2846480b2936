package membership

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyHashPrefix marks password hashes imported from the previous PHP
// backend. They verify fine with bcrypt but get rehashed opportunistically
// on the next successful login.
const legacyHashPrefix = "$2y$"

const hashCost = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// IsLegacyHash reports whether the stored hash still carries the imported
// PHP prefix.
func IsLegacyHash(hash string) bool {
	return strings.HasPrefix(hash, legacyHashPrefix)
}
