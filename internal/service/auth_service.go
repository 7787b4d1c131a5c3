package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/queue"
	"github.com/iliyamo/tresh-api/internal/repository"
	"github.com/iliyamo/tresh-api/internal/utils"
)

// AuthService is the entry point used by the HTTP handlers.
type AuthService struct {
	users      CredentialStore
	tokens     RefreshTokenStore
	issuer     *TokenIssuer
	verifier   *TokenVerifier
	bcryptCost int
	events     EventPublisher
	log        logging.Logger
}

// NewAuthService wires the issuer and verifier around the given stores.
// A nil events publisher disables audit events.
func NewAuthService(users CredentialStore, tokens RefreshTokenStore, jwtCfg config.JWTConfig, bcryptCost int, events EventPublisher, log logging.Logger) *AuthService {
	if events == nil {
		events = NopPublisher{}
	}
	issuer := NewTokenIssuer(jwtCfg, tokens)
	return &AuthService{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		verifier:   NewTokenVerifier(jwtCfg, users, tokens, issuer, events, log),
		bcryptCost: bcryptCost,
		events:     events,
		log:        log,
	}
}

// Register creates the account and returns its first token pair.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (model.AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.AuthResult{}, NewValidationError("Invalid payload")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return model.AuthResult{}, ErrEmailInUse
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.AuthResult{}, err
	}
	user, err := s.users.Create(ctx, email, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.AuthResult{}, ErrEmailInUse
		}
		return model.AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return model.AuthResult{}, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	publish(ctx, s.events, s.log, queue.AuthEvent{
		Type:       queue.EventUserRegistered,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	return res, nil
}

// Login verifies the credentials and returns a new token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResult{}, ErrInvalidCredentials
		}
		return model.AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return model.AuthResult{}, ErrInvalidCredentials
	}

	res, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return model.AuthResult{}, err
	}
	publish(ctx, s.events, s.log, queue.AuthEvent{
		Type:       queue.EventUserLoggedIn,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	return res, nil
}

// Refresh rotates the token pair; see TokenVerifier.Refresh.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (model.AuthResult, error) {
	return s.verifier.Refresh(ctx, accessToken, refreshToken)
}

// Logout revokes a single refresh token. Revoking an already revoked
// token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	hash := utils.HashRefreshRaw(refreshToken)
	rec, err := s.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrUnknownToken
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec.IsRevoked {
		return nil
	}
	if _, err := s.tokens.Revoke(ctx, hash); err != nil {
		return err
	}
	publish(ctx, s.events, s.log, queue.AuthEvent{
		Type:       queue.EventTokenRevoked,
		UserID:     rec.UserID,
		JwtID:      rec.JwtID,
		Count:      1,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// LogoutAll revokes every refresh token of the user and returns how many
// were still active.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "user sessions revoked", "user_id", userID, "count", n)
	publish(ctx, s.events, s.log, queue.AuthEvent{
		Type:       queue.EventTokenRevoked,
		UserID:     userID,
		Count:      n,
		OccurredAt: time.Now().UTC(),
	})
	return n, nil
}
