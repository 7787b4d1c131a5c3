// Package service implements registration, login and the refresh-token
// rotation protocol on top of the credential and refresh-token stores.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/tresh-api/internal/model"
)

// CredentialStore looks up and creates users. Implemented by
// repository.UserRepo.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, email, username, passwordHash string) (*model.User, error)
}

// RefreshTokenStore persists refresh-token records keyed by the hash of
// the opaque token. Implemented by repository.TokenRepo.
//
// Rotate must be atomic: it flips IsUsed on oldHash only when that record
// is neither used nor revoked, stores next in the same step, and reports
// whether it did. On false or error nothing is changed.
type RefreshTokenStore interface {
	Insert(ctx context.Context, t *model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Rotate(ctx context.Context, oldHash string, next *model.RefreshToken) (bool, error)
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
