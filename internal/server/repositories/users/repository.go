// Package users declares the Credential Store: persisted user accounts keyed
// by id and by lowercased email.
package users

import (
	"context"

	"github.com/dmitrijs2005/eventplanner/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and timestamps. Returns
	// common.ErrorAlreadyExists when the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// MarkEmailVerified sets is_email_verified. Returns common.ErrorNotFound
	// when no such user exists.
	MarkEmailVerified(ctx context.Context, id string) error
}
