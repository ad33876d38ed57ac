package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/pagemark/annotate/backend/internal/apperror"
)

const opHashPassword = "auth.hash_password"

var errEmptyPassword = errors.New("password must not be empty")

// HashPassword derives a salted bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", apperror.Validation(opHashPassword, "missing_password", errEmptyPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Internal(opHashPassword, "hash_failed", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
