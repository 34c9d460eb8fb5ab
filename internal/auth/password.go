package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// HashPassword hashes a plaintext password with bcrypt. bcrypt only reads
// the first 72 bytes, so longer inputs are truncated rather than rejected.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	raw := []byte(password)
	if len(raw) > 72 {
		raw = raw[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(raw, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(plain, hashed string) bool {
	raw := []byte(plain)
	if len(raw) > 72 {
		raw = raw[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), raw) == nil
}
