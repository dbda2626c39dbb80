package auth

import (
	"strings"
	"unicode"

	"github.com/avilov/authd/internal/apperrors"
)

const (
	passwordMinLen = 6
	passwordMaxLen = 128

	// Fixed punctuation set accepted as password symbols
	passwordSymbols = "!@#$%^&*"
)

// ValidatePassword applies the registration password policy.
// It runs before hashing and nowhere else; the returned error names
// the first unmet rule.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLen {
		return &apperrors.PasswordPolicyError{Rule: "must be at least 6 characters long"}
	}
	if len(password) > passwordMaxLen {
		return &apperrors.PasswordPolicyError{Rule: "must be at most 128 characters long"}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return &apperrors.PasswordPolicyError{Rule: "must contain at least one lowercase letter"}
	case !hasUpper:
		return &apperrors.PasswordPolicyError{Rule: "must contain at least one uppercase letter"}
	case !hasDigit:
		return &apperrors.PasswordPolicyError{Rule: "must contain at least one digit"}
	case !hasSymbol:
		return &apperrors.PasswordPolicyError{Rule: "must contain at least one of !@#$%^&*"}
	}

	return nil
}
