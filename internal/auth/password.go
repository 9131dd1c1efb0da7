package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword converts a plain password into a bcrypt hash. Used by the
// operator tooling to produce the configured admin password hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a plain password against a stored hash.
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
