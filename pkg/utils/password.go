package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const passwordSpecials = "@#$%^&+="

// ErrWeakPassword is returned by ValidatePassword.
var ErrWeakPassword = errors.New("password must be 6-100 characters and contain an upper case letter, a lower case letter, a digit and one of " + passwordSpecials)

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(p string) error {
	if n := len([]rune(p)); n < 6 || n > 100 {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		case unicode.IsSpace(r):
			return ErrWeakPassword
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
