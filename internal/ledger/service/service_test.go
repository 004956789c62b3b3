package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/ledger/models"
	"landregistry/internal/ledger/store"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

type LedgerSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	service *Service
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.service = New(s.store)
}

func (s *LedgerSuite) propertySeed() *models.Seed {
	return &models.Seed{
		EntityType: models.EntityProperty,
		Owner:      models.Party{Name: "Asha", Email: "asha@example.com", WalletAddress: "0xA5"},
		Descriptor: models.Descriptor{Name: "Plot 7", PropertyType: "residential", Locality: "Pune"},
	}
}

func (s *LedgerSuite) TestAppendWithoutSeedOrEntryIsNotFound() {
	_, err := s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{Type: models.TxVerification}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LedgerSuite) TestTransferScenario() {
	_, err := s.service.AppendTransaction(s.ctx, "P-1",
		models.Transaction{Type: models.TxRegistration, TxHash: "0xaa", BlockchainID: "0x1"}, s.propertySeed())
	s.Require().NoError(err)

	_, err = s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{
		Type: models.TxTransfer, TxHash: "0xbb", BlockchainID: "0x2",
		From: &models.Party{Name: "Asha"}, To: &models.Party{Name: "Ravi", Email: "ravi@example.com"},
	}, nil)
	s.Require().NoError(err)

	entry, err := s.service.AppendTransaction(s.ctx, "P-1",
		models.Transaction{Type: models.TxVerification, TxHash: "0xbb", Verifier: "officer@gov.example"}, nil)
	s.Require().NoError(err)

	s.Equal("0x2", entry.CurrentBlockchainID)
	s.Equal("ravi@example.com", entry.Owner.Email)
	s.True(entry.IsVerified)
	s.Require().Len(entry.Transactions, 3)
	s.Equal(models.TxTransfer, entry.Transactions[1].Type)
	s.Equal(models.TxVerification, entry.Transactions[2].Type)
	s.Equal("0x2", entry.Transactions[2].BlockchainID)

	state, err := s.service.CurrentState(s.ctx, "P-1")
	s.Require().NoError(err)
	s.Equal(entry.Transactions, state.Transactions)
}

func (s *LedgerSuite) TestSeedIgnoredWhenEntryExists() {
	_, err := s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{Type: models.TxRegistration}, s.propertySeed())
	s.Require().NoError(err)

	other := s.propertySeed()
	other.Owner = models.Party{Name: "Mallory"}
	entry, err := s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{Type: models.TxVerification}, other)
	s.Require().NoError(err)
	s.Equal("Asha", entry.Owner.Name)
	s.Len(entry.Transactions, 2)
}

func (s *LedgerSuite) TestResolve() {
	entry, err := s.service.AppendTransaction(s.ctx, "VR-1", models.Transaction{
		Type: models.TxRegistration, TxHash: "0xaa", BlockchainID: "0x1",
	}, &models.Seed{EntityType: models.EntityDocument, Descriptor: models.Descriptor{DocumentType: "aadhaar"}})
	s.Require().NoError(err)
	_, err = s.service.AppendTransaction(s.ctx, "VR-1", models.Transaction{
		Type: models.TxVerification, TxHash: "0xbb", BlockchainID: "0x9", ContentHash: "c0ffee",
	}, nil)
	s.Require().NoError(err)

	for _, lookup := range []models.Lookup{
		{By: models.ByID, Value: entry.ID.String()},
		{By: models.ByBusinessID, Value: "VR-1"},
		{By: models.ByBlockchainID, Value: "0x1"},
		{By: models.ByBlockchainID, Value: "0x9"},
		{By: models.ByTransactionHash, Value: "0xbb"},
		{By: models.ByContentHash, Value: "c0ffee"},
	} {
		got, err := s.service.Resolve(s.ctx, lookup)
		s.Require().NoError(err, lookup)
		s.Equal(entry.ID, got.ID, lookup)
		s.Equal("0x9", got.CurrentBlockchainID)
	}

	_, err = s.service.Resolve(s.ctx, models.Lookup{By: models.ByTransactionHash, Value: "0xzz"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Resolve(s.ctx, models.Lookup{By: models.ByID, Value: "not-a-uuid"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *LedgerSuite) TestInvalidTransactionLeavesEntryUntouched() {
	_, err := s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{Type: models.TxRegistration}, s.propertySeed())
	s.Require().NoError(err)

	_, err = s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{Type: models.TxTransfer}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	state, err := s.service.CurrentState(s.ctx, "P-1")
	s.Require().NoError(err)
	s.Len(state.Transactions, 1)
}

func (s *LedgerSuite) TestCount() {
	_, err := s.service.AppendTransaction(s.ctx, "VR-1", models.Transaction{Type: models.TxVerification},
		&models.Seed{EntityType: models.EntityDocument})
	s.Require().NoError(err)
	_, err = s.service.AppendTransaction(s.ctx, "VR-2", models.Transaction{Type: models.TxRegistration},
		&models.Seed{EntityType: models.EntityDocument})
	s.Require().NoError(err)

	n, err := s.service.Count(s.ctx, models.EntityDocument, true)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *LedgerSuite) TestListByOwnerFollowsTransfers() {
	_, err := s.service.AppendTransaction(s.ctx, "P-1",
		models.Transaction{Type: models.TxVerification, TxHash: "0xaa", BlockchainID: "0x1"}, s.propertySeed())
	s.Require().NoError(err)

	owned, err := s.service.ListByOwner(s.ctx, " ASHA@example.com ", models.EntityProperty, true)
	s.Require().NoError(err)
	s.Require().Len(owned, 1)
	s.Equal("P-1", owned[0].Key)

	_, err = s.service.AppendTransaction(s.ctx, "P-1", models.Transaction{
		Type: models.TxTransfer, TxHash: "0xbb", BlockchainID: "0x2",
		From: &models.Party{Name: "Asha"}, To: &models.Party{Name: "Ravi", Email: "ravi@example.com"},
	}, nil)
	s.Require().NoError(err)

	owned, err = s.service.ListByOwner(s.ctx, "asha@example.com", models.EntityProperty, true)
	s.Require().NoError(err)
	s.NotNil(owned)
	s.Empty(owned)

	owned, err = s.service.ListByOwner(s.ctx, "ravi@example.com", models.EntityProperty, true)
	s.Require().NoError(err)
	s.Len(owned, 1)

	_, err = s.service.ListByOwner(s.ctx, "  ", models.EntityProperty, true)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
