package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/queue"
	"github.com/iliyamo/tresh-api/internal/repository"
	"github.com/iliyamo/tresh-api/internal/utils"
)

// TokenVerifier redeems a refresh token presented together with the
// expired access token it was issued with.
type TokenVerifier struct {
	cfg    config.JWTConfig
	users  CredentialStore
	tokens RefreshTokenStore
	issuer *TokenIssuer
	events EventPublisher
	log    logging.Logger
	now    func() time.Time
}

func NewTokenVerifier(cfg config.JWTConfig, users CredentialStore, tokens RefreshTokenStore, issuer *TokenIssuer, events EventPublisher, log logging.Logger) *TokenVerifier {
	return &TokenVerifier{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		issuer: issuer,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// Refresh validates the pair in a fixed order and, when every check
// passes, marks the refresh token used and issues a new pair. The checks
// and their failures are:
//
//	signature / algorithm          ErrInvalidSignature
//	access token still valid       ErrNotYetExpired
//	refresh token unknown          ErrUnknownToken
//	refresh token used             ErrTokenAlreadyUsed
//	refresh token revoked          ErrTokenRevoked
//	refresh token past its expiry  ErrRefreshExpired
//	jti does not match the record  ErrTokenMismatch
//
// The conditional Rotate is the only guard against two concurrent
// redemptions; the loser gets ErrTokenAlreadyUsed, or ErrTokenRevoked when
// a logout got in between. Malformed input and store failures yield
// ErrInvalidToken.
func (v *TokenVerifier) Refresh(ctx context.Context, accessToken, refreshToken string) (model.AuthResult, error) {
	claims, err := utils.ParseAccessToken(v.cfg.Secret, accessToken, jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
		return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return model.AuthResult{}, fmt.Errorf("%w: missing exp or jti claim", ErrInvalidToken)
	}

	now := v.now().UTC()
	if now.Before(claims.ExpiresAt.Time) {
		return model.AuthResult{}, ErrNotYetExpired
	}

	hash := utils.HashRefreshRaw(refreshToken)
	rec, err := v.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.AuthResult{}, ErrUnknownToken
		}
		v.log.Error(ctx, "refresh: token lookup failed", "err", err)
		return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if rec.IsUsed {
		v.reuseDetected(ctx, rec)
		return model.AuthResult{}, ErrTokenAlreadyUsed
	}
	if rec.IsRevoked {
		return model.AuthResult{}, ErrTokenRevoked
	}
	if rec.Expired(now) {
		return model.AuthResult{}, ErrRefreshExpired
	}
	if rec.JwtID != claims.ID {
		return model.AuthResult{}, ErrTokenMismatch
	}

	user, err := v.users.FindByID(ctx, rec.UserID)
	if err != nil {
		v.log.Error(ctx, "refresh: load owner failed", "err", err, "user_id", rec.UserID)
		return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	res, next, err := v.issuer.mint(user)
	if err != nil {
		v.log.Error(ctx, "refresh: issue failed", "err", err, "user_id", user.ID)
		return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	ok, err := v.tokens.Rotate(ctx, hash, next)
	if err != nil {
		v.log.Error(ctx, "refresh: rotate failed", "err", err, "jti", rec.JwtID)
		return model.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !ok {
		return model.AuthResult{}, v.rotationRefused(ctx, hash)
	}

	publish(ctx, v.events, v.log, queue.AuthEvent{
		Type:       queue.EventTokenRefreshed,
		UserID:     user.ID,
		JwtID:      rec.JwtID,
		OccurredAt: now,
	})
	return res, nil
}

// rotationRefused re-reads a record the conditional update skipped and
// reports whether it lost to another redemption or to a revocation.
func (v *TokenVerifier) rotationRefused(ctx context.Context, hash string) error {
	cur, err := v.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrUnknownToken
		}
		v.log.Error(ctx, "refresh: token re-read failed", "err", err)
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	switch {
	case cur.IsUsed:
		v.reuseDetected(ctx, cur)
		return ErrTokenAlreadyUsed
	case cur.IsRevoked:
		return ErrTokenRevoked
	default:
		return ErrTokenAlreadyUsed
	}
}

func (v *TokenVerifier) reuseDetected(ctx context.Context, rec *model.RefreshToken) {
	v.log.Warn(ctx, "refresh: used token presented again", "user_id", rec.UserID, "jti", rec.JwtID)
	publish(ctx, v.events, v.log, queue.AuthEvent{
		Type:       queue.EventTokenReuseDetected,
		UserID:     rec.UserID,
		JwtID:      rec.JwtID,
		OccurredAt: v.now().UTC(),
	})
}
