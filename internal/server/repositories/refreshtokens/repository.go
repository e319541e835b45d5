// Package refreshtokens declares the server-side repository contract for the
// single active refresh token each user holds.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Lock serializes session issuance and rotation for userID until the
	// surrounding transaction ends.
	Lock(ctx context.Context, userID string) error

	// FindByUserID returns the user's stored token hash, locking the row.
	// Returns common.ErrorNotFound when the user has no active token.
	FindByUserID(ctx context.Context, userID string) (*models.RefreshToken, error)

	// Upsert replaces any existing record for userID, revoking the previous token.
	Upsert(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// Delete removes the user's record. Deleting a missing record is not an error.
	Delete(ctx context.Context, userID string) error
}
