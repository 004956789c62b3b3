package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landregistry/internal/activity"
	ledger "landregistry/internal/ledger/models"
	ledgerservice "landregistry/internal/ledger/service"
	ledgerstore "landregistry/internal/ledger/store"
	"landregistry/internal/storage/content"
	"landregistry/internal/syncbridge"
	"landregistry/internal/workflow/models"
	"landregistry/internal/workflow/service"
	"landregistry/internal/workflow/service/mocks"
	"landregistry/internal/workflow/store"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/audit/publishers/compliance"
	auditmemory "landregistry/pkg/platform/audit/store/memory"
	"landregistry/pkg/requestcontext"
)

const reviewer = "officer@gov.example"

type WorkflowSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	bridge   *mocks.MockLedgerBridge
	requests *store.InMemoryStore
	ledger   *ledgerstore.InMemoryStore
	mirror   *ledgerservice.Service
	activity *activity.InMemoryStore
	audit    *auditmemory.InMemoryStore
	content  *content.InMemoryStore
	stores   service.Stores
	service  *service.Service
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	ctx = requestcontext.WithIdentity(ctx, requestcontext.Identity{UserID: reviewer, IssuedFor: "government"})
	ctx = requestcontext.WithRequestID(ctx, "corr-1")
	s.ctx = ctx

	s.ctrl = gomock.NewController(s.T())
	s.bridge = mocks.NewMockLedgerBridge(s.ctrl)
	s.requests = store.NewInMemory()
	s.ledger = ledgerstore.NewInMemory()
	s.mirror = ledgerservice.New(s.ledger)
	s.activity = activity.NewInMemoryStore()
	s.audit = auditmemory.NewInMemoryStore()
	s.content = content.NewInMemory()
	s.stores = service.Stores{
		Requests: s.requests,
		Ledger:   s.mirror,
		Activity: s.activity,
		Audit:    compliance.New(s.audit),
	}
	s.service = s.newService(s.stores)
}

func (s *WorkflowSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WorkflowSuite) newService(stores service.Stores) *service.Service {
	uow := service.NewMemoryUnitOfWork(stores, service.MemoryParticipants{
		Requests: s.requests,
		Ledger:   s.ledger,
		Activity: s.activity,
		Audit:    s.audit,
	})
	svc, err := service.New(service.Config{
		UnitOfWork: uow,
		Requests:   s.requests,
		Bridge:     s.bridge,
		Content:    s.content,
	})
	s.Require().NoError(err)
	return svc
}

func propertyFields(propertyID string) *models.SubmitRequest {
	return &models.SubmitRequest{
		Property:    &models.PropertyInfo{PropertyID: propertyID, Name: "Plot 7", Type: "residential", Locality: "Pune"},
		Witnesses:   []models.Party{{Name: "Meera"}},
		Appointment: &models.AppointmentInfo{Date: "2026-05-10", Office: "Pune East"},
	}
}

func registration(propertyID string) *models.SubmitRequest {
	in := propertyFields(propertyID)
	in.Owner = &models.Party{Name: "Asha", Email: "asha@example.com"}
	return in
}

func transfer(propertyID string) *models.SubmitRequest {
	in := propertyFields(propertyID)
	in.CurrentOwner = &models.Party{Name: "Asha", Email: "asha@example.com"}
	in.NewOwner = &models.Party{Name: "Ravi", Email: "ravi@example.com", WalletAddress: "0xR4"}
	in.Blockchain = &models.BlockchainInfo{BlockchainID: "0x01", TransactionHash: "0xaaa"}
	return in
}

func document(requestID string) *models.SubmitRequest {
	return &models.SubmitRequest{
		ID:        requestID,
		Personal:  &models.PersonalInfo{FullName: "Kiran Rao", Email: "kiran@example.com", DocumentType: "aadhaar"},
		Documents: map[string]string{"front": "uploads/2026/05/04/a.png"},
	}
}

func (s *WorkflowSuite) confirmation() *models.BlockchainInfo {
	return &models.BlockchainInfo{BlockchainID: "0x02", TransactionHash: "0xbbb", BlockNumber: 42}
}

func (s *WorkflowSuite) auditActions() []string {
	events, err := s.audit.ListAll(s.ctx)
	s.Require().NoError(err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *WorkflowSuite) TestSubmitRegistrationWithoutAnchorSkipsSync() {
	res, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-100"))
	s.Require().NoError(err)

	s.Equal(models.SyncSkipped, res.BlockchainSync)
	s.Equal(models.StatusPending, res.Request.Status)
	s.Contains(res.Request.ID.String(), "REG-")
	s.Equal([]string{string(audit.EventPropertyRegistration)}, s.auditActions())

	_, err = s.mirror.CurrentState(s.ctx, "P-100")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestSubmitTransferWithoutEvidenceWritesNothing() {
	in := transfer("P-100")
	in.Blockchain.TransactionHash = ""

	_, err := s.service.Submit(s.ctx, models.KindTransfer, in)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingBlockchainData))
	s.Zero(s.audit.Len())

	pending, err := s.service.ListPending(s.ctx, models.KindTransfer)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *WorkflowSuite) TestSubmitTransferMirrorsConfirmedTransaction() {
	s.bridge.EXPECT().SyncProperty(gomock.Any(), gomock.Any(), "0xaaa").
		DoAndReturn(func(_ context.Context, p syncbridge.PropertyDescriptor, _ string) (*syncbridge.PropertySync, error) {
			s.Equal("P-100", p.PropertyID)
			s.Equal("0x01", p.BlockchainID)
			return &syncbridge.PropertySync{
				LedgerID:     "0x01",
				Confirmation: syncbridge.Confirmation{TransactionHash: "0xaaa", BlockNumber: 7, GasUsed: 21000},
			}, nil
		})

	res, err := s.service.Submit(s.ctx, models.KindTransfer, transfer("P-100"))
	s.Require().NoError(err)
	s.Equal(models.SyncCompleted, res.BlockchainSync)
	s.Equal(uint64(7), res.Request.Blockchain.BlockNumber)

	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Require().Len(entry.Transactions, 1)
	s.Equal(ledger.TxRegistration, entry.Transactions[0].Type)
	s.Equal("Asha", entry.Owner.Name)
	s.False(entry.IsVerified)

	stored, err := s.service.Get(s.ctx, models.KindTransfer, "P-100")
	s.Require().NoError(err)
	s.Equal(uint64(21000), stored.Blockchain.GasUsed)
}

func (s *WorkflowSuite) TestSubmitDocumentBridgeFailureStillAccepted() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, errors.New("rpc down"))

	res, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)
	s.Equal(models.SyncFailed, res.BlockchainSync)
	s.Equal("VR-100", res.Request.ID.String())
	s.Len(res.Request.Steps, 4)

	stored, err := s.service.Get(s.ctx, models.KindDocument, "VR-100")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.Nil(stored.Blockchain)
}

func (s *WorkflowSuite) TestSubmitDocumentDescriptorOmitsPersonalDetails() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d syncbridge.DocumentDescriptor) (*syncbridge.DocumentSync, error) {
			s.Equal("VR-100", d.RequestID)
			s.Equal([]string{"front"}, d.Documents)
			s.Equal("aadhaar", d.DocumentType)
			return nil, syncbridge.ErrSyncDisabled
		})

	res, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)
	s.Equal(models.SyncSkipped, res.BlockchainSync)
}

func (s *WorkflowSuite) TestSubmitDuplicateDocumentIDConflicts() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)
	_, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *WorkflowSuite) TestSubmitRequiresIdentity() {
	_, err := s.service.Submit(context.Background(), models.KindRegistration, registration("P-100"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *WorkflowSuite) asCitizen(email string) context.Context {
	userID, err := id.ParseUserID(email)
	s.Require().NoError(err)
	return requestcontext.WithIdentity(s.ctx, requestcontext.Identity{UserID: userID, IssuedFor: string(id.AudienceCitizen)})
}

func (s *WorkflowSuite) TestGetHidesOtherCitizensRequests() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)
	owner := s.asCitizen("kiran@example.com")
	_, err := s.service.Submit(owner, models.KindDocument, document("VR-200"))
	s.Require().NoError(err)

	_, err = s.service.Get(s.asCitizen("mallory@example.com"), models.KindDocument, "VR-200")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(context.Background(), models.KindDocument, "VR-200")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	mine, err := s.service.Get(owner, models.KindDocument, "VR-200")
	s.Require().NoError(err)
	s.Equal("Kiran Rao", mine.Personal.FullName)

	reviewed, err := s.service.Get(s.ctx, models.KindDocument, "VR-200")
	s.Require().NoError(err)
	s.Equal("kiran@example.com", reviewed.CreatedBy.String())
}

func (s *WorkflowSuite) TestListMineReturnsOnlyCallersRequests() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled).Times(3)
	kiran := s.asCitizen("kiran@example.com")
	for _, reqID := range []string{"VR-300", "VR-301"} {
		_, err := s.service.Submit(kiran, models.KindDocument, document(reqID))
		s.Require().NoError(err)
	}
	_, err := s.service.Submit(s.asCitizen("mallory@example.com"), models.KindDocument, document("VR-302"))
	s.Require().NoError(err)

	mine, err := s.service.ListMine(kiran, models.KindDocument)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	for _, req := range mine {
		s.Equal("kiran@example.com", req.CreatedBy.String())
	}

	none, err := s.service.ListMine(kiran, models.KindTransfer)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)

	_, err = s.service.ListMine(context.Background(), models.KindDocument)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.ListMine(kiran, models.Kind("lease"))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *WorkflowSuite) submitTransfer() *models.Request {
	s.bridge.EXPECT().SyncProperty(gomock.Any(), gomock.Any(), "0xaaa").Return(&syncbridge.PropertySync{
		LedgerID:     "0x01",
		Confirmation: syncbridge.Confirmation{TransactionHash: "0xaaa", BlockNumber: 7},
	}, nil)
	res, err := s.service.Submit(s.ctx, models.KindTransfer, transfer("P-100"))
	s.Require().NoError(err)
	return res.Request
}

func (s *WorkflowSuite) TestApproveTransferAppendsTransferThenVerification() {
	req := s.submitTransfer()

	approved, err := s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindTransfer, Key: req.ID.String(), Confirmation: s.confirmation(), Notes: "deed checked",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, approved.Status)
	s.Equal(reviewer, approved.Review.Verifier.String())

	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Require().Len(entry.Transactions, 3)
	s.Equal(ledger.TxTransfer, entry.Transactions[1].Type)
	s.Equal("Asha", entry.Transactions[1].From.Name)
	s.Equal(ledger.TxVerification, entry.Transactions[2].Type)
	s.Equal("Ravi", entry.Owner.Name)
	s.Equal("0x02", entry.CurrentBlockchainID)
	s.True(entry.IsVerified)

	recent, err := s.activity.ListSince(s.ctx, time.Time{}, activity.RecentLimit)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(activity.TypePropertyTransfer, recent[0].Type)
	s.Equal(activity.StatusVerified, recent[0].Status)
	s.Equal("ravi@example.com", recent[0].Owner)
	s.Equal("0xbbb", recent[0].TxHash)

	s.Equal([]string{
		string(audit.EventPropertyTransfer),
		string(audit.EventTransferVerified),
	}, s.auditActions())
}

func (s *WorkflowSuite) TestApproveByPropertyID() {
	_, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-100"))
	s.Require().NoError(err)

	approved, err := s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindRegistration, Key: "P-100", Confirmation: s.confirmation(),
	})
	s.Require().NoError(err)
	s.Equal("P-100", approved.PropertyID())

	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Require().Len(entry.Transactions, 1)
	s.Equal(ledger.TxVerification, entry.Transactions[0].Type)
	s.Equal("Asha", entry.Owner.Name)
}

func (s *WorkflowSuite) TestApproveTrimsConfirmationAndBoundsNotes() {
	_, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-100"))
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindRegistration, Key: "P-100", Confirmation: s.confirmation(),
		Notes: strings.Repeat("n", 2001),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	approved, err := s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindRegistration, Key: "P-100",
		Confirmation: &models.BlockchainInfo{BlockchainID: "  0x02 ", TransactionHash: " 0xbbb\n"},
		Notes:        "  deed checked  ",
	})
	s.Require().NoError(err)
	s.Equal("deed checked", approved.Review.Notes)

	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Equal("0x02", entry.CurrentBlockchainID)
}

func (s *WorkflowSuite) TestApproveWithoutConfirmationWritesNothing() {
	req := s.submitTransfer()
	auditBefore := s.audit.Len()

	_, err := s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindTransfer, Key: req.ID.String(),
		Confirmation: &models.BlockchainInfo{BlockchainID: "0x02"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeMissingBlockchainData))

	stored, err := s.service.Get(s.ctx, models.KindTransfer, req.ID.String())
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Len(entry.Transactions, 1)
	s.Equal(auditBefore, s.audit.Len())
	s.Zero(s.activity.Len())
}

func (s *WorkflowSuite) TestSecondDecisionIsAlreadyFinalized() {
	req := s.submitTransfer()
	in := &models.ApproveRequest{Kind: models.KindTransfer, Key: req.ID.String(), Confirmation: s.confirmation()}
	_, err := s.service.Approve(s.ctx, in)
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, in)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyFinalized))

	_, err = s.service.Reject(s.ctx, &models.RejectRequest{Kind: models.KindTransfer, Key: req.ID.String(), Notes: "late"})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyFinalized))

	entry, err := s.mirror.CurrentState(s.ctx, "P-100")
	s.Require().NoError(err)
	s.Len(entry.Transactions, 3)
}

func (s *WorkflowSuite) TestApproveUnknownRequestIsNotFound() {
	_, err := s.service.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindRegistration, Key: "P-404", Confirmation: s.confirmation(),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestApproveDocumentStoresEnvelope() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)
	_, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)

	approved, err := s.service.Approve(s.ctx, &models.ApproveRequest{Kind: models.KindDocument, Key: "VR-100", Notes: "matches"})
	s.Require().NoError(err)
	s.NotEmpty(approved.Review.ContentHash)
	s.Equal(models.StepVerificationCompleted, approved.Steps[len(approved.Steps)-1].Name)

	_, ok := s.content.Get(approved.Review.ContentHash)
	s.True(ok)

	entry, err := s.mirror.Resolve(s.ctx, ledger.Lookup{By: ledger.ByContentHash, Value: approved.Review.ContentHash})
	s.Require().NoError(err)
	s.Equal(ledger.EntityDocument, entry.EntityType)
	s.Equal("VR-100", entry.Key)
	s.True(entry.IsVerified)
}

func (s *WorkflowSuite) TestApproveDocumentContentFailureLeavesRequestPending() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)
	_, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)
	s.content.FailWith(errors.New("bucket unavailable"))

	_, err = s.service.Approve(s.ctx, &models.ApproveRequest{Kind: models.KindDocument, Key: "VR-100"})
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamSyncFailure))

	stored, err := s.service.Get(s.ctx, models.KindDocument, "VR-100")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	_, err = s.mirror.CurrentState(s.ctx, "VR-100")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestRejectDocumentLeavesLedgerUntouched() {
	s.bridge.EXPECT().SyncDocument(gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)
	_, err := s.service.Submit(s.ctx, models.KindDocument, document("VR-100"))
	s.Require().NoError(err)

	rejected, err := s.service.Reject(s.ctx, &models.RejectRequest{Kind: models.KindDocument, Key: "VR-100", Notes: "blurred scan"})
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, rejected.Status)
	s.True(rejected.Review.Rejected)
	s.Equal(models.StepVerificationRejected, rejected.Steps[len(rejected.Steps)-1].Name)

	_, err = s.mirror.CurrentState(s.ctx, "VR-100")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Zero(s.content.Len())
	s.Equal(1, s.activity.Len())
	s.Contains(s.auditActions(), string(audit.EventDocumentRejected))
}

func (s *WorkflowSuite) TestRejectRequiresNotes() {
	_, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-100"))
	s.Require().NoError(err)

	_, err = s.service.Reject(s.ctx, &models.RejectRequest{Kind: models.KindRegistration, Key: "P-100", Notes: "  "})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *WorkflowSuite) TestAuditFailureRollsBackApproval() {
	_, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-100"))
	s.Require().NoError(err)

	failing := mocks.NewMockAuditPublisher(s.ctrl)
	failing.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))
	stores := s.stores
	stores.Audit = failing
	svc := s.newService(stores)

	_, err = svc.Approve(s.ctx, &models.ApproveRequest{
		Kind: models.KindRegistration, Key: "P-100", Confirmation: s.confirmation(),
	})
	s.Require().Error(err)

	stored, err := s.service.Get(s.ctx, models.KindRegistration, "P-100")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.Nil(stored.Review)
	_, err = s.mirror.CurrentState(s.ctx, "P-100")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Zero(s.activity.Len())
}

func (s *WorkflowSuite) TestListByKindNewestFirst() {
	first, err := s.service.Submit(s.ctx, models.KindRegistration, registration("P-1"))
	s.Require().NoError(err)
	later := requestcontext.WithTime(s.ctx, requestcontext.Now(s.ctx).Add(time.Minute))
	second, err := s.service.Submit(later, models.KindRegistration, registration("P-2"))
	s.Require().NoError(err)

	pending, err := s.service.ListPending(s.ctx, models.KindRegistration)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(second.Request.ID, pending[0].ID)
	s.Equal(first.Request.ID, pending[1].ID)

	_, err = s.service.ListByKind(s.ctx, models.Kind("lease"), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *WorkflowSuite) TestSyncLedgerAppendsRegistration() {
	s.bridge.EXPECT().SyncProperty(gomock.Any(), gomock.Any(), "0xccc").Return(&syncbridge.PropertySync{
		LedgerID:     "0x09",
		Confirmation: syncbridge.Confirmation{TransactionHash: "0xccc", BlockNumber: 99},
	}, nil)

	entry, err := s.service.SyncLedger(s.ctx, &service.SyncInput{PropertyID: "P-9", TransactionHash: "0xccc"})
	s.Require().NoError(err)
	s.Equal("0x09", entry.CurrentBlockchainID)
	s.Equal([]string{string(audit.EventLedgerSynced)}, s.auditActions())
}

func (s *WorkflowSuite) TestSyncLedgerDisabledIsUpstreamFailure() {
	s.bridge.EXPECT().SyncProperty(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, syncbridge.ErrSyncDisabled)

	_, err := s.service.SyncLedger(s.ctx, &service.SyncInput{PropertyID: "P-9", TransactionHash: "0xccc"})
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamSyncFailure))
	s.Zero(s.audit.Len())
}

// Envelope upload failures must be reported before any unit of work starts.
func TestApproveDocumentUploadFailureSkipsUnitOfWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	uow := mocks.NewMockUnitOfWork(ctrl)
	requests := mocks.NewMockRequestStore(ctrl)
	contentStore := mocks.NewMockContentStore(ctrl)

	requests.EXPECT().Find(gomock.Any(), models.RequestKey{Kind: models.KindDocument, Field: models.KeyRequestID, Value: "VR-1"}).
		Return(&models.Request{ID: "VR-1", Kind: models.KindDocument, Status: models.StatusPending}, nil)
	contentStore.EXPECT().Put(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))

	svc, err := service.New(service.Config{UnitOfWork: uow, Requests: requests, Content: contentStore})
	if err != nil {
		t.Fatal(err)
	}
	ctx := requestcontext.WithIdentity(context.Background(), requestcontext.Identity{UserID: reviewer})
	_, err = svc.Approve(ctx, &models.ApproveRequest{Kind: models.KindDocument, Key: "VR-1"})
	if !dErrors.HasCode(err, dErrors.CodeUpstreamSyncFailure) {
		t.Fatalf("expected upstream sync failure, got %v", err)
	}
}

func TestApproveFinalizedDocumentSkipsUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	requests := mocks.NewMockRequestStore(ctrl)
	requests.EXPECT().Find(gomock.Any(), gomock.Any()).
		Return(&models.Request{ID: "VR-1", Kind: models.KindDocument, Status: models.StatusRejected}, nil)

	svc, err := service.New(service.Config{
		UnitOfWork: mocks.NewMockUnitOfWork(ctrl),
		Requests:   requests,
		Content:    mocks.NewMockContentStore(ctrl),
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := requestcontext.WithIdentity(context.Background(), requestcontext.Identity{UserID: reviewer})
	_, err = svc.Approve(ctx, &models.ApproveRequest{Kind: models.KindDocument, Key: "VR-1"})
	if !dErrors.HasCode(err, dErrors.CodeAlreadyFinalized) {
		t.Fatalf("expected already finalized, got %v", err)
	}
}
