package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"landregistry/internal/ledger/models"
	"landregistry/internal/platform/postgres"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
	txcontext "landregistry/pkg/platform/tx"
)

// PostgresStore keeps entries in ledger_entries with their history in the
// insert-only ledger_transactions and ledger_blockchain_ids tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, entity_type, business_key, current_blockchain_id, is_verified, owner,
	name, property_type, locality, document_type, content_hash, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, entry *models.Entry) error {
	owner, err := json.Marshal(entry.Owner)
	if err != nil {
		return fmt.Errorf("marshal owner: %w", err)
	}
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO ledger_entries (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(entry.ID),
		string(entry.EntityType),
		entry.Key,
		entry.CurrentBlockchainID,
		entry.IsVerified,
		owner,
		entry.Descriptor.Name,
		entry.Descriptor.PropertyType,
		entry.Descriptor.Locality,
		entry.Descriptor.DocumentType,
		entry.ContentHash,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("ledger entry %s: %w", entry.Key, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Append inserts the new transaction row, the new blockchain id row when one
// was assigned, and refreshes the derived columns. The (entry_id, seq) key
// turns a lost race into ErrConflict.
func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry, appended models.Appended) error {
	exec := txcontext.Exec(ctx, s.db)
	tx := appended.Transaction

	from, err := marshalParty(tx.From)
	if err != nil {
		return err
	}
	to, err := marshalParty(tx.To)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx,
		`INSERT INTO ledger_transactions
		 (entry_id, seq, type, tx_hash, block_number, gas_used, blockchain_id, from_party, to_party, verifier, content_hash, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(entry.ID), appended.Seq, string(tx.Type), tx.TxHash, int64(tx.BlockNumber), int64(tx.GasUsed),
		tx.BlockchainID, from, to, tx.Verifier.String(), tx.ContentHash, tx.Timestamp,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("ledger entry %s seq %d: %w", entry.Key, appended.Seq, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}

	if rec := appended.BlockchainID; rec != nil {
		_, err = exec.ExecContext(ctx,
			`INSERT INTO ledger_blockchain_ids (entry_id, seq, blockchain_id, tx_hash, assigned_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.UUID(entry.ID), appended.IDSeq, rec.ID, rec.TxHash, rec.AssignedAt,
		)
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("ledger entry %s id seq %d: %w", entry.Key, appended.IDSeq, sentinel.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert ledger blockchain id: %w", err)
		}
	}

	owner, err := json.Marshal(entry.Owner)
	if err != nil {
		return fmt.Errorf("marshal owner: %w", err)
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE ledger_entries
		 SET current_blockchain_id = $2, is_verified = $3, owner = $4, content_hash = $5, updated_at = $6
		 WHERE id = $1`,
		uuid.UUID(entry.ID), entry.CurrentBlockchainID, entry.IsVerified, owner, entry.ContentHash, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ledger entry %s: %w", entry.Key, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error) {
	return s.findOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`,
		"ledger entry "+entryID.String(), uuid.UUID(entryID))
}

func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*models.Entry, error) {
	return s.findOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE business_key = $1`,
		"ledger entry "+key, key)
}

// FindByBlockchainID matches the current id first, then any historical one.
func (s *PostgresStore) FindByBlockchainID(ctx context.Context, blockchainID string) (*models.Entry, error) {
	return s.findOne(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries e
		WHERE e.current_blockchain_id = $1
		   OR e.id IN (SELECT entry_id FROM ledger_blockchain_ids WHERE blockchain_id = $1)
		ORDER BY (e.current_blockchain_id = $1) DESC, e.updated_at DESC
		LIMIT 1`,
		"ledger entry for blockchain id "+blockchainID, blockchainID)
}

func (s *PostgresStore) FindByTransactionHash(ctx context.Context, hash string) (*models.Entry, error) {
	return s.findOne(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries e
		WHERE e.id IN (SELECT entry_id FROM ledger_transactions WHERE tx_hash = $1)
		   OR e.id IN (SELECT entry_id FROM ledger_blockchain_ids WHERE tx_hash = $1)
		ORDER BY e.updated_at DESC
		LIMIT 1`,
		"ledger entry for transaction "+hash, hash)
}

func (s *PostgresStore) FindByContentHash(ctx context.Context, hash string) (*models.Entry, error) {
	return s.findOne(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries e
		WHERE e.content_hash = $1
		   OR e.id IN (SELECT entry_id FROM ledger_transactions WHERE content_hash = $1)
		ORDER BY e.updated_at DESC
		LIMIT 1`,
		"ledger entry for content "+hash, hash)
}

func (s *PostgresStore) Count(ctx context.Context, entityType models.EntityType, verifiedOnly bool) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE entity_type = $1 AND (NOT $2 OR is_verified)`,
		string(entityType), verifiedOnly,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, email string, entityType models.EntityType, verifiedOnly bool) ([]models.Entry, error) {
	exec := txcontext.Exec(ctx, s.db)
	rows, err := exec.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE lower(owner ->> 'email') = $1 AND entity_type = $2 AND (NOT $3 OR is_verified)
		 ORDER BY updated_at DESC`,
		strings.ToLower(email), string(entityType), verifiedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by owner: %w", err)
	}
	var out []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *entry)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	// A tx connection runs one query at a time, so history loads after the
	// cursor is closed.
	for i := range out {
		if err := s.loadHistory(ctx, exec, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query, what string, args ...any) (*models.Entry, error) {
	exec := txcontext.Exec(ctx, s.db)
	entry, err := scanEntry(exec.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	if err := s.loadHistory(ctx, exec, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, exec txcontext.Executor, entry *models.Entry) error {
	rows, err := exec.QueryContext(ctx,
		`SELECT type, tx_hash, block_number, gas_used, blockchain_id, from_party, to_party, verifier, content_hash, occurred_at
		 FROM ledger_transactions WHERE entry_id = $1 ORDER BY seq`,
		uuid.UUID(entry.ID))
	if err != nil {
		return fmt.Errorf("load ledger transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tx          models.Transaction
			txType      string
			blockNumber int64
			gasUsed     int64
			from, to    []byte
			verifier    string
		)
		if err := rows.Scan(&txType, &tx.TxHash, &blockNumber, &gasUsed, &tx.BlockchainID, &from, &to,
			&verifier, &tx.ContentHash, &tx.Timestamp); err != nil {
			return fmt.Errorf("scan ledger transaction: %w", err)
		}
		tx.Type = models.TransactionType(txType)
		tx.BlockNumber = uint64(blockNumber)
		tx.GasUsed = uint64(gasUsed)
		tx.Verifier = id.UserID(verifier)
		if tx.From, err = unmarshalParty(from); err != nil {
			return err
		}
		if tx.To, err = unmarshalParty(to); err != nil {
			return err
		}
		entry.Transactions = append(entry.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ledger transactions: %w", err)
	}

	idRows, err := exec.QueryContext(ctx,
		`SELECT blockchain_id, tx_hash, assigned_at FROM ledger_blockchain_ids WHERE entry_id = $1 ORDER BY seq`,
		uuid.UUID(entry.ID))
	if err != nil {
		return fmt.Errorf("load ledger blockchain ids: %w", err)
	}
	defer idRows.Close()
	for idRows.Next() {
		var rec models.BlockchainIDRecord
		if err := idRows.Scan(&rec.ID, &rec.TxHash, &rec.AssignedAt); err != nil {
			return fmt.Errorf("scan ledger blockchain id: %w", err)
		}
		entry.BlockchainIDs = append(entry.BlockchainIDs, rec)
	}
	return idRows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		entry      models.Entry
		entryID    uuid.UUID
		entityType string
		owner      []byte
	)
	if err := row.Scan(&entryID, &entityType, &entry.Key, &entry.CurrentBlockchainID, &entry.IsVerified, &owner,
		&entry.Descriptor.Name, &entry.Descriptor.PropertyType, &entry.Descriptor.Locality, &entry.Descriptor.DocumentType,
		&entry.ContentHash, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	entry.ID = id.EntryID(entryID)
	entry.EntityType = models.EntityType(entityType)
	if len(owner) > 0 {
		if err := json.Unmarshal(owner, &entry.Owner); err != nil {
			return nil, fmt.Errorf("unmarshal owner: %w", err)
		}
	}
	return &entry, nil
}

// marshalParty returns an untyped nil for absent parties so the column is NULL.
func marshalParty(p *models.Party) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal party: %w", err)
	}
	return b, nil
}

func unmarshalParty(b []byte) (*models.Party, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var p models.Party
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("unmarshal party: %w", err)
	}
	return &p, nil
}
