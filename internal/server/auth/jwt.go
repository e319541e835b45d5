// Package auth holds the credential primitives of the server: the JWT token
// minter, the bcrypt secret hasher, and generators for activation tokens and
// 6-digit login codes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects the secret and lifetime a token is minted with.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims are the JWT claims carried by every token. Kind prevents an access
// token from being accepted where a refresh token is expected and vice versa.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenMinter signs and verifies HS256 bearer tokens.
type TokenMinter struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenMinter builds a minter with separate secrets and lifetimes for
// access and refresh tokens.
func NewTokenMinter(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenMinter {
	return &TokenMinter{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (m *TokenMinter) WithClock(now func() time.Time) *TokenMinter {
	m.now = now
	return m
}

func (m *TokenMinter) params(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case AccessToken:
		return m.accessSecret, m.accessTTL, nil
	case RefreshToken:
		return m.refreshSecret, m.refreshTTL, nil
	}
	return nil, 0, fmt.Errorf("unknown token kind %q", kind)
}

// Sign mints a token of the given kind for userID and returns it with its expiry.
func (m *TokenMinter) Sign(userID string, kind TokenKind) (string, time.Time, error) {
	secret, ttl, err := m.params(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := m.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind: kind,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify checks signature, expiry and kind of tokenString. It returns
// common.ErrTokenExpired for expired tokens and common.ErrInvalidToken for
// anything else.
func (m *TokenMinter) Verify(tokenString string, kind TokenKind) (*TokenClaims, error) {
	secret, _, err := m.params(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	out := &TokenClaims{Subject: claims.Subject, ID: claims.ID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time

	return out, nil
}
