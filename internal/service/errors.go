package service

import (
	"errors"
	"strings"
)

// Failure kinds returned by AuthService and TokenVerifier. Handlers map
// each of them to a 400 response with the message from FailureMessage;
// any other error is an infrastructure failure.
var (
	ErrValidation         = errors.New("invalid payload")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid login request")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrNotYetExpired      = errors.New("token has not yet expired")
	ErrUnknownToken       = errors.New("token does not exist")
	ErrTokenAlreadyUsed   = errors.New("token has been used")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrRefreshExpired     = errors.New("refresh token has expired")
	ErrTokenMismatch      = errors.New("token doesn't match")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError carries per-field messages for a rejected payload.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError from the given messages.
func NewValidationError(msgs ...string) error {
	return &ValidationError{Messages: msgs}
}

var failureMessages = []struct {
	err error
	msg string
}{
	{ErrEmailInUse, "Email already in use"},
	{ErrInvalidCredentials, "Invalid login request"},
	{ErrInvalidSignature, "Invalid token"},
	{ErrNotYetExpired, "Token has not yet expired"},
	{ErrUnknownToken, "Token does not exist"},
	{ErrTokenAlreadyUsed, "Token has been used"},
	{ErrTokenRevoked, "Token has been revoked"},
	{ErrRefreshExpired, "Refresh token has expired"},
	{ErrTokenMismatch, "Token doesn't match"},
	{ErrInvalidToken, "Invalid token"},
}

// IsFailure reports whether err is one of the client-facing failure kinds.
func IsFailure(err error) bool {
	if errors.Is(err, ErrValidation) {
		return true
	}
	for _, f := range failureMessages {
		if errors.Is(err, f.err) {
			return true
		}
	}
	return false
}

// FailureMessages returns the user-facing messages for err. Validation
// errors yield one message per rejected field; unknown errors yield nil.
func FailureMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if len(ve.Messages) == 0 {
			return []string{"Invalid payload"}
		}
		return ve.Messages
	}
	if errors.Is(err, ErrValidation) {
		return []string{"Invalid payload"}
	}
	if msg := FailureMessage(err); msg != "" {
		return []string{msg}
	}
	return nil
}

// FailureMessage returns the single user-facing message for a failure
// kind, or "" when err is not one.
func FailureMessage(err error) string {
	if errors.Is(err, ErrValidation) {
		return "Invalid payload"
	}
	for _, f := range failureMessages {
		if errors.Is(err, f.err) {
			return f.msg
		}
	}
	return ""
}
