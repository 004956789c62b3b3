package activity

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landregistry/pkg/domain"
)

func TestPostgresAppendAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := NewPostgresStore(db)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO activity_entries`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Append(context.Background(), Entry{
		Type: TypePropertyTransfer, Status: StatusVerified, ActorEmail: "officer@gov.example",
		ActorRole: RoleGovernmentOfficial, RequestID: "TRF-1", OccurredAt: now,
	}))

	entryID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM activity_entries`)).
		WithArgs(now.Add(-RecentWindow), RecentLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "activity_type", "status", "actor_email", "actor_role",
			"request_id", "property_id", "subject_name", "owner", "tx_hash", "block_number", "blockchain_id",
			"description", "notes", "client_ip", "occurred_at"}).
			AddRow(entryID.String(), "PROPERTY_TRANSFER", "VERIFIED", "officer@gov.example", RoleGovernmentOfficial,
				"TRF-1", "P-1", "Plot 7", "ravi@example.com", "0xbb", int64(12), "0x2",
				"Property Transfer verified on blockchain", "", "10.0.0.1", now))

	entries, err := store.ListSince(context.Background(), now.Add(-RecentWindow), RecentLimit)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, id.UserID("officer@gov.example"), entries[0].ActorEmail)
	assert.Equal(t, uint64(12), entries[0].BlockNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
