package model

import "time"

// User represents an account row in the `users` table. The identity is
// immutable after registration.
//
// Fields:
//
//	ID           – uuid primary key.
//	Email        – unique, lower-cased email address.
//	Username     – display name chosen at registration.
//	PasswordHash – bcrypt hash; the plain password is never stored.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
