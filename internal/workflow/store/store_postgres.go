package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"landregistry/internal/platform/postgres"
	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
	txcontext "landregistry/pkg/platform/tx"
)

// PostgresStore keeps requests in verification_requests. Indexed fields are
// columns; the kind-specific body lives in the payload JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type payload struct {
	Owner        *models.Party             `json:"owner,omitempty"`
	CurrentOwner *models.Party             `json:"current_owner,omitempty"`
	NewOwner     *models.Party             `json:"new_owner,omitempty"`
	Property     *models.PropertyInfo      `json:"property,omitempty"`
	Witnesses    []models.Party            `json:"witnesses,omitempty"`
	Appointment  *models.AppointmentInfo   `json:"appointment,omitempty"`
	Personal     *models.PersonalInfo      `json:"personal,omitempty"`
	Steps        []models.VerificationStep `json:"steps,omitempty"`
	Documents    map[string]string         `json:"documents,omitempty"`
	Blockchain   *models.BlockchainInfo    `json:"blockchain,omitempty"`
	Review       *models.Review            `json:"review,omitempty"`
	ClientIP     string                    `json:"client_ip,omitempty"`
}

func payloadOf(r *models.Request) ([]byte, error) {
	b, err := json.Marshal(payload{
		Owner:        r.Owner,
		CurrentOwner: r.CurrentOwner,
		NewOwner:     r.NewOwner,
		Property:     r.Property,
		Witnesses:    r.Witnesses,
		Appointment:  r.Appointment,
		Personal:     r.Personal,
		Steps:        r.Steps,
		Documents:    r.Documents,
		Blockchain:   r.Blockchain,
		Review:       r.Review,
		ClientIP:     r.ClientIP,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}
	return b, nil
}

const requestColumns = `id, kind, status, priority, property_id, created_by, payload, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	body, err := payloadOf(req)
	if err != nil {
		return err
	}
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO verification_requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		string(req.ID), string(req.Kind), string(req.Status), string(req.Priority), req.PropertyID(),
		req.CreatedBy.String(), body, req.CreatedAt, req.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, key models.RequestKey) (*models.Request, error) {
	return s.find(ctx, key, "")
}

// FindForUpdate locks the row for the rest of the caller's transaction.
func (s *PostgresStore) FindForUpdate(ctx context.Context, key models.RequestKey) (*models.Request, error) {
	return s.find(ctx, key, " FOR UPDATE")
}

func (s *PostgresStore) find(ctx context.Context, key models.RequestKey, suffix string) (*models.Request, error) {
	var query string
	switch key.Field {
	case models.KeyRequestID:
		query = `SELECT ` + requestColumns + ` FROM verification_requests WHERE kind = $1 AND id = $2`
	case models.KeyPropertyID:
		query = `SELECT ` + requestColumns + ` FROM verification_requests WHERE kind = $1 AND property_id = $2
			ORDER BY (status = 'pending') DESC, created_at DESC LIMIT 1`
	default:
		return nil, fmt.Errorf("unknown key field %q", key.Field)
	}
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query+suffix, string(key.Kind), key.Value)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s request %s: %w", key.Kind, key.Value, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find request: %w", err)
	}
	return req, nil
}

// Finalize only updates a row that is still pending. Zero affected rows
// means another reviewer got there first.
func (s *PostgresStore) Finalize(ctx context.Context, req *models.Request) error {
	body, err := payloadOf(req)
	if err != nil {
		return err
	}
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE verification_requests SET status = $2, payload = $3, updated_at = $4
		 WHERE id = $1 AND status = 'pending'`,
		string(req.ID), string(req.Status), body, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("finalize request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize request rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) SetBlockchain(ctx context.Context, requestID id.RequestID, info models.BlockchainInfo) error {
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal blockchain info: %w", err)
	}
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE verification_requests SET payload = jsonb_set(payload, '{blockchain}', $2::jsonb)
		 WHERE id = $1`,
		string(requestID), body,
	)
	if err != nil {
		return fmt.Errorf("set request blockchain: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByKind(ctx context.Context, kind models.Kind, statuses []models.Status) ([]models.Request, error) {
	return s.list(ctx,
		`SELECT `+requestColumns+` FROM verification_requests
		 WHERE kind = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		 ORDER BY created_at DESC`,
		string(kind), pq.Array(statusStrings(statuses)),
	)
}

func (s *PostgresStore) ListByCreator(ctx context.Context, createdBy id.UserID, kind models.Kind) ([]models.Request, error) {
	return s.list(ctx,
		`SELECT `+requestColumns+` FROM verification_requests
		 WHERE created_by = $1 AND kind = $2
		 ORDER BY created_at DESC`,
		createdBy.String(), string(kind),
	)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Request, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, filter models.CountFilter) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_requests
		 WHERE ($1 = '' OR kind = $1)
		   AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		   AND ($3 = '' OR priority = $3)`,
		string(filter.Kind), pq.Array(statusStrings(filter.Statuses)), string(filter.Priority),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindLatestByBlockchain(ctx context.Context, kind models.Kind, field models.BlockchainField, value string) (*models.Request, error) {
	var expr string
	switch field {
	case models.FieldBlockchainID:
		expr = `payload -> 'blockchain' ->> 'blockchain_id'`
	case models.FieldTransactionHash:
		expr = `payload -> 'blockchain' ->> 'transaction_hash'`
	default:
		return nil, fmt.Errorf("unknown blockchain field %q", field)
	}
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM verification_requests
		 WHERE kind = $1 AND `+expr+` = $2
		 ORDER BY created_at DESC LIMIT 1`,
		string(kind), value,
	)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s request with %s %s: %w", kind, field, value, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find request by %s: %w", field, err)
	}
	return req, nil
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		req        models.Request
		reqID      string
		kind       string
		status     string
		priority   string
		propertyID sql.NullString
		createdBy  string
		body       []byte
	)
	if err := row.Scan(&reqID, &kind, &status, &priority, &propertyID, &createdBy, &body,
		&req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal request payload: %w", err)
	}
	req.ID = id.RequestID(reqID)
	req.Kind = models.Kind(kind)
	req.Status = models.Status(status)
	req.Priority = models.Priority(priority)
	req.CreatedBy = id.UserID(createdBy)
	req.Owner = p.Owner
	req.CurrentOwner = p.CurrentOwner
	req.NewOwner = p.NewOwner
	req.Property = p.Property
	req.Witnesses = p.Witnesses
	req.Appointment = p.Appointment
	req.Personal = p.Personal
	req.Steps = p.Steps
	req.Documents = p.Documents
	req.Blockchain = p.Blockchain
	req.Review = p.Review
	req.ClientIP = p.ClientIP
	return &req, nil
}
