package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "landregistry/pkg/domain"
	audit "landregistry/pkg/platform/audit"
	txcontext "landregistry/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Each Append writes the queryable audit_events row and an outbox row in the
// caller's transaction; cmd/audit-relay ships outbox rows to Kafka.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Timestamp       string `json:"timestamp"`
	Action          string `json:"action"`
	ActorID         string `json:"actor_id,omitempty"`
	Subject         string `json:"subject,omitempty"`
	Kind            string `json:"kind,omitempty"`
	PropertyID      string `json:"property_id,omitempty"`
	BlockchainID    string `json:"blockchain_id,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Notes           string `json:"notes,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	ClientIP        string `json:"client_ip,omitempty"`
}

// Append writes an audit event and its outbox entry.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories map is the source of truth
	category := audit.AuditEvent(event.Action).Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	exec := txcontext.Exec(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, action, actor, subject, kind, property_id,
			blockchain_id, tx_hash, notes, request_id, client_ip, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		eventID,
		string(category),
		event.Action,
		event.ActorID.String(),
		event.Subject,
		event.Kind,
		event.PropertyID,
		event.BlockchainID,
		event.TransactionHash,
		event.Notes,
		event.RequestID,
		event.ClientIP,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	payloadBytes, err := json.Marshal(outboxPayload{
		ID:              eventID.String(),
		Category:        string(category),
		Timestamp:       event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:          event.Action,
		ActorID:         event.ActorID.String(),
		Subject:         event.Subject,
		Kind:            event.Kind,
		PropertyID:      event.PropertyID,
		BlockchainID:    event.BlockchainID,
		TransactionHash: event.TransactionHash,
		Notes:           event.Notes,
		RequestID:       event.RequestID,
		ClientIP:        event.ClientIP,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "request"
	if category == audit.CategorySecurity || category == audit.CategoryOperations {
		aggregateType = "session"
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(),
		aggregateType,
		event.Subject,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListBySubject returns a subject's audit trail, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, action, actor, subject, kind, property_id,
			   blockchain_id, tx_hash, notes, request_id, client_ip, occurred_at
		FROM audit_events
		WHERE subject = $1
		ORDER BY occurred_at`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			actor    string
			event    audit.Event
		)
		if err := rows.Scan(&category, &event.Action, &actor, &event.Subject, &event.Kind, &event.PropertyID,
			&event.BlockchainID, &event.TransactionHash, &event.Notes, &event.RequestID, &event.ClientIP,
			&event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.ActorID = id.UserID(actor)
		events = append(events, event)
	}
	return events, rows.Err()
}

// OutboxEntry is one unshipped outbox row.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// FetchUnprocessed locks up to limit unshipped rows for the current
// transaction. Concurrent relays skip rows another relay holds.
func (s *Store) FetchUnprocessed(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkProcessed stamps shipped rows.
func (s *Store) MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, v := range ids {
		strIDs[i] = v.String()
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE outbox SET processed_at = $2 WHERE id = ANY($1::uuid[])`,
		pq.Array(strIDs), at)
	if err != nil {
		return fmt.Errorf("mark outbox processed: %w", err)
	}
	return nil
}

// RunInTx exposes the store's database to the relay's unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, txcontext.DefaultTimeout, fn)
}
