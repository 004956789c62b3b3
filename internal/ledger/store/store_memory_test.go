package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landregistry/internal/ledger/models"
	"landregistry/pkg/platform/sentinel"
)

func seeded(t *testing.T, s *InMemoryStore, key string) *models.Entry {
	t.Helper()
	entry, err := models.NewEntry(key, models.Seed{EntityType: models.EntityProperty, Owner: models.Party{Name: "Asha"}}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), entry))
	return entry
}

func TestInMemoryCreateRejectsDuplicateKey(t *testing.T) {
	s := NewInMemory()
	seeded(t, s, "P-1")

	dup, err := models.NewEntry("P-1", models.Seed{EntityType: models.EntityProperty}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Create(context.Background(), dup), sentinel.ErrConflict)
}

func TestInMemoryAppendDetectsStaleSeq(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	entry := seeded(t, s, "P-1")

	first := entry.Clone()
	second := entry.Clone()

	a1, err := first.Apply(models.Transaction{Type: models.TxRegistration, BlockchainID: "0x1"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, first, a1))

	a2, err := second.Apply(models.Transaction{Type: models.TxVerification}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Append(ctx, second, a2), sentinel.ErrConflict)

	stored, err := s.FindByKey(ctx, "P-1")
	require.NoError(t, err)
	assert.Len(t, stored.Transactions, 1)
}

func TestInMemoryLookups(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	entry := seeded(t, s, "P-1")
	now := time.Now()

	for _, tx := range []models.Transaction{
		{Type: models.TxRegistration, TxHash: "0xaa", BlockchainID: "0x1"},
		{Type: models.TxTransfer, TxHash: "0xbb", BlockchainID: "0x2", To: &models.Party{Name: "Ravi"}},
		{Type: models.TxVerification, TxHash: "0xcc", ContentHash: "feed"},
	} {
		appended, err := entry.Apply(tx, now)
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, entry, appended))
	}

	byOld, err := s.FindByBlockchainID(ctx, "0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x2", byOld.CurrentBlockchainID)

	byHash, err := s.FindByTransactionHash(ctx, "0xcc")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byHash.ID)

	byContent, err := s.FindByContentHash(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", byContent.Owner.Name)

	_, err = s.FindByTransactionHash(ctx, "0xdd")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	n, err := s.Count(ctx, models.EntityProperty, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInMemoryBlockchainIDPrefersCurrentHolder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	holder := seeded(t, s, "P-2")
	appended, err := holder.Apply(models.Transaction{Type: models.TxRegistration, BlockchainID: "0x1"}, base)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, holder, appended))

	moved := seeded(t, s, "P-1")
	for i, bid := range []string{"0x1", "0x2"} {
		appended, err := moved.Apply(models.Transaction{Type: models.TxRegistration, BlockchainID: bid}, base.Add(time.Duration(i+1)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, moved, appended))
	}

	got, err := s.FindByBlockchainID(ctx, "0x1")
	require.NoError(t, err)
	assert.Equal(t, "P-2", got.Key)

	got, err = s.FindByBlockchainID(ctx, "0x2")
	require.NoError(t, err)
	assert.Equal(t, "P-1", got.Key)
}

func TestInMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	entry := seeded(t, s, "P-1")

	got, err := s.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	got.Owner.Name = "Mallory"

	again, err := s.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.Owner.Name)
}

func TestInMemorySnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	seeded(t, s, "P-1")

	snap := s.Snapshot()
	seeded(t, s, "P-2")
	s.Restore(snap)

	_, err := s.FindByKey(ctx, "P-2")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = s.FindByKey(ctx, "P-1")
	assert.NoError(t, err)
}

func TestInMemoryListByOwner(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	add := func(key string, kind models.EntityType, email string, verified bool, at time.Time) {
		entry, err := models.NewEntry(key, models.Seed{EntityType: kind, Owner: models.Party{Name: key, Email: email}}, at)
		require.NoError(t, err)
		entry.IsVerified = verified
		require.NoError(t, s.Create(ctx, entry))
	}
	add("P-1", models.EntityProperty, "asha@example.com", true, base)
	add("P-2", models.EntityProperty, "Asha@Example.com", true, base.Add(time.Hour))
	add("P-3", models.EntityProperty, "asha@example.com", false, base.Add(2*time.Hour))
	add("P-4", models.EntityProperty, "ravi@example.com", true, base)
	add("D-1", models.EntityDocument, "asha@example.com", true, base)

	owned, err := s.ListByOwner(ctx, "asha@example.com", models.EntityProperty, true)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "P-2", owned[0].Key)
	assert.Equal(t, "P-1", owned[1].Key)

	all, err := s.ListByOwner(ctx, "asha@example.com", models.EntityProperty, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.ListByOwner(ctx, "nobody@example.com", models.EntityProperty, false)
	require.NoError(t, err)
	assert.Empty(t, none)
}
