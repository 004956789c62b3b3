package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "landregistry/pkg/domain"
	txcontext "landregistry/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const activityColumns = `id, activity_type, status, actor_email, actor_role, request_id, property_id,
	subject_name, owner, tx_hash, block_number, blockchain_id, description, notes, client_ip, occurred_at`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO activity_entries (`+activityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		entry.ID, string(entry.Type), string(entry.Status), entry.ActorEmail.String(), entry.ActorRole,
		entry.RequestID, entry.PropertyID, entry.SubjectName, entry.Owner, entry.TxHash,
		int64(entry.BlockNumber), entry.BlockchainID, entry.Description, entry.Notes, entry.ClientIP,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activity_entries
		 WHERE occurred_at >= $1 ORDER BY occurred_at DESC LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			actType     string
			status      string
			actor       string
			blockNumber int64
		)
		if err := rows.Scan(&e.ID, &actType, &status, &actor, &e.ActorRole, &e.RequestID, &e.PropertyID,
			&e.SubjectName, &e.Owner, &e.TxHash, &blockNumber, &e.BlockchainID, &e.Description, &e.Notes,
			&e.ClientIP, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Type = Type(actType)
		e.Status = Status(status)
		e.ActorEmail = id.UserID(actor)
		e.BlockNumber = uint64(blockNumber)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_entries WHERE occurred_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}
