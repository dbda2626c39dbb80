package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmailTaken   = errors.New("user with this email already exists")
	ErrUserNotFound = errors.New("user not found")

	// Deliberately uninformative: covers both unknown email and wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrAccessTokenInvalid = errors.New("access token is not valid")
	ErrAccessTokenExpired = errors.New("access token is expired")

	ErrInvalidIdentifier = errors.New("identifier is not well formed")
)

// PasswordPolicyError names the password rule that was not met.
// It is the only structured error of the auth core: handlers are expected
// to show the rule to the user, everything else is matched with errors.Is.
type PasswordPolicyError struct {
	Rule string
}

func (e *PasswordPolicyError) Error() string {
	return fmt.Sprintf("password policy violated: %s", e.Rule)
}
