package utils // package utils provides helpers for token creation, parsing and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshAlphabet and refreshRandomLen define the random prefix of every
// refresh token; a uuid is appended to guarantee uniqueness.
const (
	refreshAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	refreshRandomLen = 35
)

// AccessClaims is the claim set carried by access tokens. Subject holds the
// email and ID (jti) binds the token to its refresh record.
type AccessClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AccessToken is a signed JWT together with the identifiers the caller
// needs to persist the paired refresh token.
type AccessToken struct {
	Token string
	JwtID string
	Exp   time.Time
}

// RefreshToken is the raw opaque token returned to the client and its
// expiry. Only HashRefreshRaw(Raw) is persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs an HS256 JWT for the user. A fresh uuid
// is used as jti.
func NewAccessToken(secret []byte, userID, email string, now time.Time, ttl time.Duration) (AccessToken, error) {
	jti := uuid.NewString()
	exp := now.Add(ttl)
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{Token: signed, JwtID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies the signature of raw and returns its claims.
// Only HS256 is accepted. Extra parser options are appended; pass
// jwt.WithoutClaimsValidation() to read tokens that have already expired.
func ParseAccessToken(secret []byte, raw string, opts ...jwt.ParserOption) (*AccessClaims, error) {
	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}, opts...)
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewRefreshToken returns an unguessable refresh token: 35 characters drawn
// from crypto/rand followed by a uuid.
func NewRefreshToken(now time.Time, ttl time.Duration) (RefreshToken, error) {
	prefix, err := randomString(refreshRandomLen)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: prefix + uuid.NewString(),
		Exp: now.Add(ttl),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string. Storing only the hash keeps a leaked table from being replayable.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(refreshAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = refreshAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
