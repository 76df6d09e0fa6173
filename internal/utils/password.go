package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// VerifySecret checks supplied against a configured secret. Configured
// bcrypt hashes are verified with bcrypt, plain values in constant time.
// An empty configured secret never matches.
func VerifySecret(configured, supplied string) bool {
	if configured == "" || supplied == "" {
		return false
	}
	if isBcryptHash(configured) {
		return CheckPassword(configured, supplied) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
