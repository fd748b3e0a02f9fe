package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are truncated before hashing and
// verification, so two passwords sharing the same first 72 bytes are equivalent.
const MaxPasswordBytes = 72

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. Malformed hashes never match.
func VerifyPassword(hashedPassword, password string) bool {
	return ComparePassword(hashedPassword, password) == nil
}

// ComparePassword is VerifyPassword with the bcrypt error exposed, letting callers tell a
// mismatch (bcrypt.ErrMismatchedHashAndPassword) from a corrupt stored hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), truncate(password))
}

func truncate(password string) []byte {
	raw := []byte(password)
	if len(raw) > MaxPasswordBytes {
		raw = raw[:MaxPasswordBytes]
	}
	return raw
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
