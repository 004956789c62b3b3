package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	txcontext "landregistry/pkg/platform/tx"
)

// Clock returns the current time.
type Clock func() time.Time

// PostgresList persists invalidated token hashes. It is the record of truth;
// the Redis cache only accelerates lookups.
type PostgresList struct {
	db    *sql.DB
	clock Clock
}

// PostgresListOption configures a PostgresList instance.
type PostgresListOption func(*PostgresList)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresListOption {
	return func(l *PostgresList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresListOption) *PostgresList {
	l := &PostgresList{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Append inserts the record. A hash that is already present is left as is.
func (l *PostgresList) Append(ctx context.Context, token models.InvalidatedToken) error {
	query := `
		INSERT INTO invalidated_tokens (token_hash, user_id, device_id, reason, invalidated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_hash) DO NOTHING
	`
	_, err := txcontext.Exec(ctx, l.db).ExecContext(ctx, query,
		token.TokenHash,
		token.UserID.String(),
		token.DeviceID.String(),
		string(token.Reason),
		token.InvalidatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("append invalidated token: %w", err)
	}
	return nil
}

// IsInvalidated reports whether the hash is listed and the token it stands
// for has not yet expired on its own.
func (l *PostgresList) IsInvalidated(ctx context.Context, tokenHash string) (bool, error) {
	var expiresAt time.Time
	err := txcontext.Exec(ctx, l.db).QueryRowContext(ctx,
		`SELECT expires_at FROM invalidated_tokens WHERE token_hash = $1`, tokenHash).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check invalidated token: %w", err)
	}
	if l.clock().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

func (l *PostgresList) ListByUser(ctx context.Context, userID id.UserID) ([]models.InvalidatedToken, error) {
	rows, err := txcontext.Exec(ctx, l.db).QueryContext(ctx, `
		SELECT token_hash, user_id, device_id, reason, invalidated_at, expires_at
		FROM invalidated_tokens WHERE user_id = $1 ORDER BY invalidated_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list invalidated tokens: %w", err)
	}
	defer rows.Close()

	var out []models.InvalidatedToken
	for rows.Next() {
		var (
			t                 models.InvalidatedToken
			user, device, why string
		)
		if err := rows.Scan(&t.TokenHash, &user, &device, &why, &t.InvalidatedAt, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan invalidated token: %w", err)
		}
		t.UserID = id.UserID(user)
		t.DeviceID = id.DeviceID(device)
		t.Reason = models.InvalidationReason(why)
		out = append(out, t)
	}
	return out, rows.Err()
}
