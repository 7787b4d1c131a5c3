// Package queue defines the auth audit events exchanged over RabbitMQ and
// the consumer that persists them.
package queue

import "time"

// Event types published by the auth service.
const (
	EventUserRegistered     = "user.registered"
	EventUserLoggedIn       = "user.logged_in"
	EventTokenRefreshed     = "token.refreshed"
	EventTokenReuseDetected = "token.reuse_detected"
	EventTokenRevoked       = "token.revoked"
)

// AuthEvent is a single audit record. It carries identifiers only; tokens
// and password material never leave the service.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	JwtID      string    `json:"jwt_id,omitempty"`
	Count      int64     `json:"count,omitempty"` // tokens affected by a bulk revoke
	OccurredAt time.Time `json:"occurred_at"`
}
