package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landregistry/internal/auth/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
	txcontext "landregistry/pkg/platform/tx"
)

// PostgresStore persists sessions in the sessions table. Writes are upserts
// on (user_id, device_id), so concurrent writers resolve last-writer-wins.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `session_id, user_id, device_id, token_hash, display_name, issued_for,
	platform, device_name, fingerprint, created_at, last_active, last_sync`

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error) {
	return s.find(ctx, userID, deviceID, "")
}

// FindForUpdate locks the session row until the surrounding transaction ends.
func (s *PostgresStore) FindForUpdate(ctx context.Context, userID id.UserID, deviceID id.DeviceID) (*models.Session, error) {
	return s.find(ctx, userID, deviceID, " FOR UPDATE")
}

func (s *PostgresStore) find(ctx context.Context, userID id.UserID, deviceID id.DeviceID, lock string) (*models.Session, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND device_id = $2`+lock,
		userID.String(), deviceID.String())
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session for device %s: %w", deviceID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			token_hash   = EXCLUDED.token_hash,
			display_name = EXCLUDED.display_name,
			issued_for   = EXCLUDED.issued_for,
			platform     = EXCLUDED.platform,
			device_name  = EXCLUDED.device_name,
			fingerprint  = EXCLUDED.fingerprint,
			last_active  = EXCLUDED.last_active,
			last_sync    = COALESCE(EXCLUDED.last_sync, sessions.last_sync)
		RETURNING session_id, created_at, last_sync
	`
	var (
		sessionID uuid.UUID
		createdAt time.Time
		lastSync  sql.NullTime
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(session.ID),
		session.UserID.String(),
		session.DeviceID.String(),
		session.TokenHash,
		session.DisplayName,
		string(session.IssuedFor),
		session.Platform,
		session.DeviceName,
		session.Fingerprint,
		session.CreatedAt,
		session.LastActive,
		nullTime(session.LastSync),
	).Scan(&sessionID, &createdAt, &lastSync)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	session.ID = id.SessionID(sessionID)
	session.CreatedAt = createdAt
	if lastSync.Valid {
		t := lastSync.Time
		session.LastSync = &t
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID, deviceID id.DeviceID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND device_id = $2`,
		userID.String(), deviceID.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session for device %s: %w", deviceID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.Session, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY last_active DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		sess      models.Session
		sessionID uuid.UUID
		userID    string
		deviceID  string
		issuedFor string
		lastSync  sql.NullTime
	)
	if err := row.Scan(&sessionID, &userID, &deviceID, &sess.TokenHash, &sess.DisplayName, &issuedFor,
		&sess.Platform, &sess.DeviceName, &sess.Fingerprint, &sess.CreatedAt, &sess.LastActive, &lastSync); err != nil {
		return nil, err
	}
	sess.ID = id.SessionID(sessionID)
	sess.UserID = id.UserID(userID)
	sess.DeviceID = id.DeviceID(deviceID)
	sess.IssuedFor = id.Audience(issuedFor)
	if lastSync.Valid {
		t := lastSync.Time
		sess.LastSync = &t
	}
	return &sess, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
