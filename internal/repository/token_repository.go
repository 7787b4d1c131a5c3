package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/tresh-api/internal/model"
)

const tokenColumns = "id, user_id, token_hash, jwt_id, is_used, is_revoked, issued_at, expires_at"

// TokenRepo persists refresh tokens (hashed) and their lifecycle flags.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Insert stores a new refresh token row and sets t.ID.
func (r *TokenRepo) Insert(ctx context.Context, t *model.RefreshToken) error {
	return insertToken(ctx, r.DB, t)
}

func insertToken(ctx context.Context, ex execer, t *model.RefreshToken) error {
	res, err := ex.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, jwt_id, is_used, is_revoked, issued_at, expires_at) VALUES (?,?,?,?,?,?,?)",
		t.UserID, t.TokenHash, t.JwtID, t.IsUsed, t.IsRevoked, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("refresh token id: %w", err)
	}
	t.ID = uint64(id)
	return nil
}

// FindByHash returns the token row for a SHA-256 token hash.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1", tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.JwtID, &t.IsUsed, &t.IsRevoked, &t.IssuedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	return &t, nil
}

// markTokenUsed flips is_used for a token that is neither used nor
// revoked. It reports false when another request got there first.
func markTokenUsed(ctx context.Context, ex execer, tokenHash string) (bool, error) {
	res, err := ex.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_used=1 WHERE token_hash=? AND is_used=0 AND is_revoked=0",
		tokenHash)
	if err != nil {
		return false, fmt.Errorf("mark refresh token used: %w", err)
	}
	return affectedOne(res)
}

// Rotate marks oldHash used and inserts next in one transaction. It
// reports false, and stores nothing, when oldHash was already used or
// revoked.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash string, next *model.RefreshToken) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin refresh rotation: %w", err)
	}
	ok, err := markTokenUsed(ctx, tx, oldHash)
	if err != nil || !ok {
		_ = tx.Rollback()
		return false, err
	}
	if err := insertToken(ctx, tx, next); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit refresh rotation: %w", err)
	}
	return true, nil
}

// Revoke marks a single token as revoked. It reports false when the token
// does not exist or was already revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_revoked=1 WHERE token_hash=? AND is_revoked=0",
		tokenHash)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return affectedOne(res)
}

// RevokeAllForUser revokes every active token of the user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_revoked=1 WHERE user_id=? AND is_revoked=0",
		userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

// PurgeExpired deletes tokens whose expiry is before the cutoff.
func (r *TokenRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
