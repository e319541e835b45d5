// Package twofactor stores pending 6-digit login codes keyed by email.
package twofactor

import (
	"context"

	"github.com/dmitrijs2005/eventplanner/internal/server/models"
)

// Repository defines operations on two-factor codes.
type Repository interface {
	// Create inserts code and fills its ID.
	Create(ctx context.Context, code *models.TwoFactorCode) error

	// Find returns the newest code for email and locks it for the rest of the
	// transaction. Returns common.ErrorNotFound when none exists.
	Find(ctx context.Context, email string) (*models.TwoFactorCode, error)

	// IncrementAttempts records a failed guess and returns the new count.
	IncrementAttempts(ctx context.Context, id string) (int, error)

	// DeleteByEmail revokes every code for email.
	DeleteByEmail(ctx context.Context, email string) error
}
