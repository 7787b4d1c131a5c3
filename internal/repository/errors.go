// Package repository holds the MySQL data access layer. Sentinel errors let
// the service and handler layers tell "absent" apart from infrastructure
// failures, which are returned wrapped.
package repository

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
	ErrEmailExists = errors.New("email already exists")

	// ErrTokenNotFound is returned when no refresh token matches the hash.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrItemNotFound is returned when a todo item does not exist.
	ErrItemNotFound = errors.New("item not found")
)
