package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/utils"
)

// TokenIssuer mints an access token and its paired refresh token and
// persists the refresh record before handing either to the caller.
type TokenIssuer struct {
	cfg    config.JWTConfig
	tokens RefreshTokenStore
	now    func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig, tokens RefreshTokenStore) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, tokens: tokens, now: time.Now}
}

// Issue creates a new token pair for user. When the refresh record cannot
// be stored no tokens are returned.
func (i *TokenIssuer) Issue(ctx context.Context, user *model.User) (model.AuthResult, error) {
	res, rec, err := i.mint(user)
	if err != nil {
		return model.AuthResult{}, err
	}
	if err := i.tokens.Insert(ctx, rec); err != nil {
		return model.AuthResult{}, fmt.Errorf("store refresh token: %w", err)
	}
	return res, nil
}

// mint signs a new pair and builds the refresh record for it without
// storing anything.
func (i *TokenIssuer) mint(user *model.User) (model.AuthResult, *model.RefreshToken, error) {
	now := i.now().UTC()

	access, err := utils.NewAccessToken(i.cfg.Secret, user.ID, user.Email, now, i.cfg.AccessTTL)
	if err != nil {
		return model.AuthResult{}, nil, err
	}
	refresh, err := utils.NewRefreshToken(now, i.cfg.RefreshTTL)
	if err != nil {
		return model.AuthResult{}, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	rec := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshRaw(refresh.Raw),
		JwtID:     access.JwtID,
		IssuedAt:  now,
		ExpiresAt: refresh.Exp,
	}
	return model.AuthResult{
		Token:        access.Token,
		RefreshToken: refresh.Raw,
		IsSuccess:    true,
		Errors:       []string{},
	}, rec, nil
}
