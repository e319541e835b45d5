package models

import "time"

// ActivationToken proves control of an email address after registration.
// A row past ExpiresAt is treated as absent.
type ActivationToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TwoFactorCode is the pending 6-digit login code for an email.
type TwoFactorCode struct {
	ID        string
	UserID    string
	Email     string
	Secret    string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken is the single active refresh-token hash for a user.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether t is past its expiry at now.
func (t *ActivationToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// Expired reports whether c is past its expiry at now.
func (c *TwoFactorCode) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

// Expired reports whether r is past its expiry at now.
func (r *RefreshToken) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }
