package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the opaque token is stored. Each record is paired with
// the jti of the access token issued alongside it.
//
// IsUsed flips false→true exactly once, when the token is redeemed, and
// IsRevoked never goes back to false. Rows are kept as an audit trail.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	JwtID     string
	IsUsed    bool
	IsRevoked bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the refresh token's own lifetime has passed.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
