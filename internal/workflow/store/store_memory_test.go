package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landregistry/internal/workflow/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

func request(reqID string, kind models.Kind, propertyID string, status models.Status, created time.Time) *models.Request {
	return &models.Request{
		ID:        id.RequestID(reqID),
		Kind:      kind,
		Status:    status,
		Priority:  models.PriorityNormal,
		Property:  &models.PropertyInfo{PropertyID: propertyID},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestInMemoryCreateDuplicate(t *testing.T) {
	s := NewInMemory()
	now := time.Now()
	require.NoError(t, s.Create(context.Background(), request("REG-1", models.KindRegistration, "P-1", models.StatusPending, now)))
	err := s.Create(context.Background(), request("REG-1", models.KindRegistration, "P-2", models.StatusPending, now))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryFindByPropertyPrefersPending(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, request("REG-1", models.KindRegistration, "P-1", models.StatusPending, base)))
	require.NoError(t, s.Create(ctx, request("REG-2", models.KindRegistration, "P-1", models.StatusRejected, base.Add(time.Hour))))

	key, err := models.ResolveKey(models.KindRegistration, "P-1")
	require.NoError(t, err)
	got, err := s.Find(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, id.RequestID("REG-1"), got.ID)
}

func TestInMemoryFinalizeGuardsTerminalState(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	req := request("TRF-1", models.KindTransfer, "P-1", models.StatusPending, time.Now())
	require.NoError(t, s.Create(ctx, req))

	done := req.Clone()
	done.Status = models.StatusCompleted
	require.NoError(t, s.Finalize(ctx, done))

	again := req.Clone()
	again.Status = models.StatusRejected
	assert.ErrorIs(t, s.Finalize(ctx, again), sentinel.ErrInvalidState)
}

func TestInMemoryListCountAndBlockchainLookup(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	urgent := request("REG-1", models.KindRegistration, "P-1", models.StatusPending, base)
	urgent.Priority = models.PriorityUrgent
	require.NoError(t, s.Create(ctx, urgent))
	require.NoError(t, s.Create(ctx, request("REG-2", models.KindRegistration, "P-2", models.StatusPending, base.Add(time.Minute))))
	require.NoError(t, s.Create(ctx, request("REG-3", models.KindRegistration, "P-3", models.StatusCompleted, base)))
	transfer := request("TRF-1", models.KindTransfer, "P-1", models.StatusPending, base)
	require.NoError(t, s.Create(ctx, transfer))
	require.NoError(t, s.SetBlockchain(ctx, transfer.ID, models.BlockchainInfo{BlockchainID: "0x9", TransactionHash: "0xbeef"}))

	pending, err := s.ListByKind(ctx, models.KindRegistration, []models.Status{models.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id.RequestID("REG-2"), pending[0].ID)

	n, err := s.Count(ctx, models.CountFilter{Kind: models.KindRegistration, Statuses: []models.Status{models.StatusPending}, Priority: models.PriorityUrgent})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FindLatestByBlockchain(ctx, models.KindTransfer, models.FieldTransactionHash, "0xbeef")
	require.NoError(t, err)
	assert.Equal(t, transfer.ID, got.ID)

	_, err = s.FindLatestByBlockchain(ctx, models.KindTransfer, models.FieldBlockchainID, "0xnone")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Create(ctx, request("REG-1", models.KindRegistration, "P-1", models.StatusPending, time.Now())))

	key, _ := models.ResolveKey(models.KindRegistration, "REG-1")
	got, err := s.Find(ctx, key)
	require.NoError(t, err)
	got.Status = models.StatusCompleted

	again, err := s.Find(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestInMemoryListByCreator(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	add := func(reqID string, kind models.Kind, owner string, created time.Time) {
		req := request(reqID, kind, "", models.StatusPending, created)
		req.CreatedBy = id.UserID(owner)
		require.NoError(t, s.Create(ctx, req))
	}
	add("VR-1", models.KindDocument, "asha@example.com", base)
	add("VR-2", models.KindDocument, "asha@example.com", base.Add(time.Hour))
	add("VR-3", models.KindDocument, "ravi@example.com", base)
	add("REG-1", models.KindRegistration, "asha@example.com", base)

	mine, err := s.ListByCreator(ctx, "asha@example.com", models.KindDocument)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, id.RequestID("VR-2"), mine[0].ID)
	assert.Equal(t, id.RequestID("VR-1"), mine[1].ID)

	none, err := s.ListByCreator(ctx, "ravi@example.com", models.KindRegistration)
	require.NoError(t, err)
	assert.Empty(t, none)
}
