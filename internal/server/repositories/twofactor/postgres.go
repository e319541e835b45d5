package twofactor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/dbx"
	"github.com/dmitrijs2005/eventplanner/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.TwoFactorCode) error {
	query := `
		INSERT INTO two_factor_codes (user_id, email, secret, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, attempts, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, code.UserID, code.Email, code.Secret, code.ExpiresAt).
		Scan(&code.ID, &code.Attempts, &code.CreatedAt, &code.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, email string) (*models.TwoFactorCode, error) {
	query := `
		SELECT id, user_id, email, secret, attempts, expires_at, created_at, updated_at
		FROM two_factor_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`
	c := &models.TwoFactorCode{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&c.ID, &c.UserID, &c.Email, &c.Secret, &c.Attempts, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE two_factor_codes SET attempts = attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}

func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `
		DELETE FROM two_factor_codes
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
