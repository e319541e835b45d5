// Package activationtokens stores single-use email activation tokens, one per user.
package activationtokens

import (
	"context"

	"github.com/dmitrijs2005/eventplanner/internal/server/models"
)

// Repository defines operations on activation tokens.
type Repository interface {
	// Create stores token. Returns common.ErrorAlreadyExists if the user already
	// holds one or the token value collides.
	Create(ctx context.Context, token *models.ActivationToken) error

	// Find returns the user's token, locking the row for the rest of the
	// transaction. Expiry is not checked here. Returns common.ErrorNotFound
	// when absent.
	Find(ctx context.Context, userID string) (*models.ActivationToken, error)

	// Delete removes the user's token. Deleting a missing token is not an error.
	Delete(ctx context.Context, userID string) error
}
