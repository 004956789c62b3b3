package reviewer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email id.UserID) (*models.Reviewer, error) {
	var (
		r    models.Reviewer
		addr string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name, password_hash, created_at FROM reviewers WHERE email = $1`,
		email.String()).Scan(&addr, &r.DisplayName, &r.PasswordHash, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reviewer %s: %w", email, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find reviewer: %w", err)
	}
	r.Email = id.UserID(addr)
	return &r, nil
}

func (s *PostgresStore) Save(ctx context.Context, r *models.Reviewer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviewers (email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			display_name  = EXCLUDED.display_name,
			password_hash = EXCLUDED.password_hash`,
		r.Email.String(), r.DisplayName, r.PasswordHash, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("save reviewer: %w", err)
	}
	return nil
}
