package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"landregistry/internal/auth/models"
	"landregistry/internal/auth/store/reviewer"
	"landregistry/internal/auth/store/revocation"
	"landregistry/internal/auth/store/session"
	jwttoken "landregistry/internal/jwt_token"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/audit/publishers/compliance"
	auditmemory "landregistry/pkg/platform/audit/store/memory"
	"landregistry/pkg/requestcontext"
)

const (
	testKey   = "test-signing-key-that-is-long-enough-32"
	govDomain = "gov.example"
	citizen   = id.UserID("asha@example.com")
	officer   = id.UserID("officer@gov.example")
	laptop    = id.DeviceID("laptop-1")
	phone     = id.DeviceID("phone-1")
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	err     error
}

func (c *fakeCache) Add(_ context.Context, hash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[hash] = ttl
	return nil
}

func (c *fakeCache) Contains(_ context.Context, hash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	_, ok := c.entries[hash]
	return ok, nil
}

type failingAuditor struct{}

func (failingAuditor) Emit(context.Context, audit.Event) error { return errors.New("audit store down") }

type ServiceSuite struct {
	suite.Suite
	sessions      *session.InMemorySessionStore
	invalidations *revocation.InMemoryList
	auditStore    *auditmemory.InMemoryStore
	reviewers     *reviewer.InMemoryStore
	cache         *fakeCache
	service       *Service
	ctx           context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.sessions = session.New()
	s.invalidations = revocation.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.reviewers = reviewer.New()
	s.cache = &fakeCache{entries: map[string]time.Duration{}}
	s.service = s.newService(compliance.New(s.auditStore))
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "10.0.0.1", firefoxUA)
}

func (s *ServiceSuite) newService(auditor AuditPublisher, opts ...Option) *Service {
	svc, err := New(Config{
		Tx:               NewMemoryTx(s.sessions, s.invalidations, s.auditStore),
		Sessions:         s.sessions,
		Invalidations:    s.invalidations,
		Reviewers:        s.reviewers,
		Signer:           jwttoken.NewJWTService(testKey, "landregistry"),
		Auditor:          auditor,
		GovernmentDomain: govDomain,
	}, append([]Option{WithCache(s.cache)}, opts...)...)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) issue(user id.UserID) string {
	token, err := s.service.Issue(s.ctx, models.Claims{UserID: user, DisplayName: "Asha", IssuedFor: id.AudienceCitizen})
	s.Require().NoError(err)
	return token
}

func (s *ServiceSuite) TestIssueAuthenticateRoundTrip() {
	token := s.issue(citizen)

	ident, err := s.service.Authenticate(s.ctx, token, "")
	s.Require().NoError(err)
	s.Equal(citizen, ident.UserID)
	s.Equal("Asha", ident.DisplayName)
	s.Equal(string(id.AudienceCitizen), ident.IssuedFor)

	_, err = s.sessions.Find(s.ctx, citizen, laptop)
	s.Error(err, "no device means no session")
}

func (s *ServiceSuite) TestIssueRejectsUnknownAudience() {
	_, err := s.service.Issue(s.ctx, models.Claims{UserID: citizen, IssuedFor: "admin"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestAuthenticateRejectsTamperedToken() {
	token := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, token+"x", laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestTrustOnFirstUseCreatesThenRebindsSession() {
	first := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, first, laptop)
	s.Require().NoError(err)

	created, err := s.sessions.Find(s.ctx, citizen, laptop)
	s.Require().NoError(err)
	s.Equal(models.HashToken(first), created.TokenHash)
	s.Equal("desktop", created.Platform)
	s.NotEmpty(created.DeviceName)

	events, err := s.auditStore.ListBySubject(s.ctx, laptop.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventSessionCreated), events[0].Action)

	second := s.issue(citizen)
	_, err = s.service.Authenticate(s.ctx, second, laptop)
	s.Require().NoError(err)

	updated, err := s.sessions.Find(s.ctx, citizen, laptop)
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal(models.HashToken(second), updated.TokenHash)
	s.False(updated.LastActive.Before(created.LastActive))
}

func (s *ServiceSuite) TestKnownDevicesOnlyRefusesNewDevices() {
	svc := s.newService(compliance.New(s.auditStore), WithTrustPolicy(KnownDevicesOnly{}))
	token := s.issue(citizen)

	_, err := svc.Authenticate(s.ctx, token, laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(0, s.auditStore.Len())

	enrolled, err := svc.Sync(s.ctx, token, laptop)
	s.Require().NoError(err)
	s.NotNil(enrolled.LastSync)
	s.Equal(1, s.auditStore.Len())

	ident, err := svc.Authenticate(s.ctx, token, laptop)
	s.Require().NoError(err)
	s.Equal(citizen, ident.UserID)
}

func (s *ServiceSuite) TestInvalidateEndsSessionAndToken() {
	token := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, token, laptop)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Invalidate(s.ctx, token, laptop))

	_, err = s.service.Authenticate(s.ctx, token, laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.sessions.Find(s.ctx, citizen, laptop)
	s.Error(err)

	list, err := s.invalidations.ListByUser(s.ctx, citizen)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.ReasonLogout, list[0].Reason)
	s.Equal(models.HashToken(token), list[0].TokenHash)
	s.Contains(s.cache.entries, models.HashToken(token))
	s.InDelta(models.TokenTTL.Seconds(), s.cache.entries[models.HashToken(token)].Seconds(), 5)
}

func (s *ServiceSuite) TestRefreshRequiresSession() {
	token := s.issue(citizen)

	_, err := s.service.Refresh(s.ctx, token, laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeNoSession))
	s.Equal(0, s.invalidations.Len())
}

func (s *ServiceSuite) TestTwoRapidRefreshesInvalidateBothOldTokens() {
	t0 := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, t0, laptop)
	s.Require().NoError(err)

	r1, err := s.service.Refresh(s.ctx, t0, laptop)
	s.Require().NoError(err)
	r2, err := s.service.Refresh(s.ctx, r1.Token, laptop)
	s.Require().NoError(err)

	list, err := s.invalidations.ListByUser(s.ctx, citizen)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	hashes := []string{list[0].TokenHash, list[1].TokenHash}
	s.ElementsMatch([]string{models.HashToken(t0), models.HashToken(r1.Token)}, hashes)
	for _, entry := range list {
		s.Equal(models.ReasonRefresh, entry.Reason)
	}

	_, err = s.service.Authenticate(s.ctx, t0, laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.Authenticate(s.ctx, r1.Token, laptop)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	ident, err := s.service.Authenticate(s.ctx, r2.Token, laptop)
	s.Require().NoError(err)
	s.Equal(citizen, ident.UserID)
	s.Equal("Asha", ident.DisplayName)
}

func (s *ServiceSuite) TestRefreshLeavesOtherDevicesAlone() {
	onLaptop := s.issue(citizen)
	onPhone := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, onLaptop, laptop)
	s.Require().NoError(err)
	_, err = s.service.Authenticate(s.ctx, onPhone, phone)
	s.Require().NoError(err)

	_, err = s.service.Refresh(s.ctx, onLaptop, laptop)
	s.Require().NoError(err)

	phoneSession, err := s.sessions.Find(s.ctx, citizen, phone)
	s.Require().NoError(err)
	s.Equal(models.HashToken(onPhone), phoneSession.TokenHash)
	_, err = s.service.Authenticate(s.ctx, onPhone, phone)
	s.NoError(err)
}

func (s *ServiceSuite) TestRefreshRollsBackWhenAuditFails() {
	token := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, token, laptop)
	s.Require().NoError(err)
	auditBefore := s.auditStore.Len()

	svc := s.newService(failingAuditor{})
	_, err = svc.Refresh(s.ctx, token, laptop)
	s.Require().Error(err)

	sess, err := s.sessions.Find(s.ctx, citizen, laptop)
	s.Require().NoError(err)
	s.Equal(models.HashToken(token), sess.TokenHash)
	s.Equal(0, s.invalidations.Len())
	s.Equal(auditBefore, s.auditStore.Len())
	s.Empty(s.cache.entries)
}

func (s *ServiceSuite) TestCacheHitShortCircuitsStore() {
	token := s.issue(citizen)
	s.cache.entries[models.HashToken(token)] = time.Hour

	_, err := s.service.Authenticate(s.ctx, token, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCacheFailureFallsThroughToStore() {
	token := s.issue(citizen)
	_, err := s.service.Authenticate(s.ctx, token, laptop)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Invalidate(s.ctx, token, laptop))

	s.cache.err = errors.New("redis down")
	s.cache.entries = map[string]time.Duration{}

	_, err = s.service.Authenticate(s.ctx, token, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCheckStatus() {
	token := s.issue(citizen)

	status := s.service.CheckStatus(s.ctx, token)
	s.True(status.Valid)
	s.Require().NotNil(status.Identity)
	s.Equal(citizen, status.Identity.UserID)

	_, err := s.service.Authenticate(s.ctx, token, laptop)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Invalidate(s.ctx, token, laptop))

	status = s.service.CheckStatus(s.ctx, token)
	s.False(status.Valid)
	s.Equal("token has been invalidated", status.Reason)

	s.False(s.service.CheckStatus(s.ctx, "").Valid)
}

func (s *ServiceSuite) TestSyncStampsLastSync() {
	token := s.issue(citizen)

	sess, err := s.service.Sync(s.ctx, token, laptop)
	s.Require().NoError(err)
	s.Require().NotNil(sess.LastSync)

	stored, err := s.sessions.Find(s.ctx, citizen, laptop)
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastSync)

	_, err = s.service.Sync(s.ctx, token, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestLoginDerivesDisplayName() {
	result, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "asha.rao@example.com"})
	s.Require().NoError(err)
	s.Equal("Asha Rao", result.DisplayName)
	s.Equal(string(id.AudienceCitizen), result.IssuedFor)
	s.Equal("Bearer", result.TokenType)
}

func (s *ServiceSuite) TestGovernmentLogin() {
	_, err := s.service.RegisterReviewer(s.ctx, officer.String(), "Field Officer", "correct horse battery")
	s.Require().NoError(err)

	result, err := s.service.GovernmentLogin(s.ctx, &models.GovernmentLoginRequest{Email: officer.String(), Password: "correct horse battery"})
	s.Require().NoError(err)
	s.Equal(string(id.AudienceGovernment), result.IssuedFor)
	s.Equal("Field Officer", result.DisplayName)

	events, err := s.auditStore.ListByActor(s.ctx, officer)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.CategorySecurity, events[0].Category)

	_, err = s.service.GovernmentLogin(s.ctx, &models.GovernmentLoginRequest{Email: officer.String(), Password: "wrong password!"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.GovernmentLogin(s.ctx, &models.GovernmentLoginRequest{Email: "nobody@gov.example", Password: "whatever123456"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.GovernmentLogin(s.ctx, &models.GovernmentLoginRequest{Email: "asha@example.com", Password: "whatever123456"})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestRegisterReviewerValidation() {
	_, err := s.service.RegisterReviewer(s.ctx, "asha@example.com", "", "long enough password")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.RegisterReviewer(s.ctx, officer.String(), "", "short")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestTrustPolicies(t *testing.T) {
	now := time.Now()
	existing := &models.Session{ID: id.NewSessionID(), UserID: citizen, DeviceID: laptop, TokenHash: "old", CreatedAt: now.Add(-time.Hour)}
	presented := models.Session{ID: id.NewSessionID(), UserID: citizen, DeviceID: laptop, TokenHash: "new", LastActive: now}

	created, err := TrustOnFirstUse{}.Admit(nil, presented)
	require.NoError(t, err)
	assert.Equal(t, presented.ID, created.ID)

	rebound, err := TrustOnFirstUse{}.Admit(existing, presented)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, rebound.ID)
	assert.Equal(t, "new", rebound.TokenHash)
	assert.Equal(t, "old", existing.TokenHash, "existing session is not mutated")

	_, err = KnownDevicesOnly{}.Admit(nil, presented)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	rebound, err = KnownDevicesOnly{}.Admit(existing, presented)
	require.NoError(t, err)
	assert.Equal(t, now, rebound.LastActive)
}
