package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/registration/models"
	"govportal/internal/registration/service"
	"govportal/internal/registration/service/mocks"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

type FailureSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	requests  *mocks.MockRequestStore
	accounts  *mocks.MockAccountStore
	sectors   *mocks.MockSectorLookup
	functions *mocks.MockFunctionLookup
	enforcer  *mocks.MockEnforcer
	ledger    *mocks.MockLedger
	hasher    *mocks.MockHasher
	tx        *mocks.MockTxRunner
	svc       *service.Service
	ctx       context.Context
	caller    requestcontext.AuthPrincipal
}

func TestFailureSuite(t *testing.T) {
	suite.Run(t, new(FailureSuite))
}

func (s *FailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.requests = mocks.NewMockRequestStore(s.ctrl)
	s.accounts = mocks.NewMockAccountStore(s.ctrl)
	s.sectors = mocks.NewMockSectorLookup(s.ctrl)
	s.functions = mocks.NewMockFunctionLookup(s.ctrl)
	s.enforcer = mocks.NewMockEnforcer(s.ctrl)
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.hasher = mocks.NewMockHasher(s.ctrl)
	s.tx = mocks.NewMockTxRunner(s.ctrl)
	s.svc = service.New(service.Stores{
		Requests:  s.requests,
		Accounts:  s.accounts,
		Sectors:   s.sectors,
		Functions: s.functions,
	}, s.tx, s.enforcer, s.ledger, s.hasher)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	s.caller = requestcontext.AuthPrincipal{AccountID: 1, Role: domain.RoleMaster, SectorID: 2}
}

func (s *FailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *FailureSuite) pending() *models.Request {
	return &models.Request{
		ID: 42, Email: "n@example.org", Name: "Nominee", SecretHash: "hash",
		Role: domain.RoleMember, SectorID: 2, RequestedBy: 3, Status: domain.RequestStatusPending,
	}
}

// runTx executes the transactional closure directly, then returns commitErr.
func (s *FailureSuite) runTx(commitErr error) {
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			if err := fn(ctx); err != nil {
				return err
			}
			return commitErr
		})
}

func (s *FailureSuite) expectApprovalFailed(code dErrors.Code) {
	s.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
		s.Equal(audit.ActionApprovalFailed, e.Action)
		s.Equal(string(code), e.Detail["error"])
	})
}

func (s *FailureSuite) TestApproveCommitFailureIsAudited() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), s.caller, domain.SectorID(2), domain.RoleMaster, domain.RoleCoordinator).Return(nil)
	s.runTx(errors.New("commit: connection reset"))
	s.requests.EXPECT().FindForUpdate(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *accountmodels.Account) error {
		a.ID = 9
		return nil
	})
	s.requests.EXPECT().MarkApproved(gomock.Any(), domain.RequestID(42), domain.AccountID(9), domain.AccountID(1), gomock.Any()).Return(nil)
	s.ledger.EXPECT().RecordTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(audit.Record{ID: 5}, nil)
	s.expectApprovalFailed(dErrors.CodeInternal)

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *FailureSuite) TestApproveTimeoutIsRetryable() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)
	s.expectApprovalFailed(dErrors.CodeTimeout)

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *FailureSuite) TestApproveLostRaceAtUpdate() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.runTx(nil)
	s.requests.EXPECT().FindForUpdate(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *accountmodels.Account) error {
		a.ID = 9
		return nil
	})
	s.requests.EXPECT().MarkApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(sentinel.ErrInvalidState)

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyProcessed))
}

func (s *FailureSuite) TestApproveDuplicateAccountEmail() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.runTx(nil)
	s.requests.EXPECT().FindForUpdate(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
	s.expectApprovalFailed(dErrors.CodeConflict)

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *FailureSuite) TestApproveLookupFailure() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(nil, errors.New("connection refused"))

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *FailureSuite) TestApproveDeniedNeverOpensTransaction() {
	denied := dErrors.New(dErrors.CodeCrossSectorDenied, "resource belongs to another sector")
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(denied)

	_, err := s.svc.Approve(s.ctx, s.caller, 42)
	s.ErrorIs(err, denied)
}

func (s *FailureSuite) TestRejectStoreFailure() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.requests.EXPECT().RejectIf(gomock.Any(), domain.RequestID(42), domain.AccountID(1), "", gomock.Any()).
		Return(errors.New("connection refused"))

	err := s.svc.Reject(s.ctx, s.caller, 42, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *FailureSuite) TestRejectStoreTimeoutIsRetryable() {
	s.requests.EXPECT().FindByID(gomock.Any(), domain.RequestID(42)).Return(s.pending(), nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.requests.EXPECT().RejectIf(gomock.Any(), domain.RequestID(42), domain.AccountID(1), "", gomock.Any()).
		Return(fmt.Errorf("reject registration request: %w", context.DeadlineExceeded))

	err := s.svc.Reject(s.ctx, s.caller, 42, "")
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *FailureSuite) TestListPendingUsesEnforcerScope() {
	s.enforcer.EXPECT().Check(gomock.Any(), s.caller, domain.SectorID(0), domain.RoleMaster, domain.RoleCoordinator).Return(nil)
	s.enforcer.EXPECT().SectorScope(gomock.Any(), s.caller).Return(domain.SectorID(2), nil)
	s.requests.EXPECT().ListPending(gomock.Any(), domain.SectorID(2)).Return([]*models.Request{s.pending()}, nil)

	out, err := s.svc.ListPending(s.ctx, s.caller)
	s.Require().NoError(err)
	s.Len(out, 1)
}

func (s *FailureSuite) TestSubmitHashFailure() {
	s.sectors.EXPECT().FindByCode(gomock.Any(), "TI").Return(&accountmodels.Sector{ID: 2, Code: "TI"}, nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), domain.SectorID(2), gomock.Any(), gomock.Any()).Return(nil)
	s.accounts.EXPECT().ExistsByEmail(gomock.Any(), "n@example.org").Return(false, nil)
	s.requests.EXPECT().PendingEmailExists(gomock.Any(), "n@example.org").Return(false, nil)
	s.hasher.EXPECT().Hash("long-enough").Return("", errors.New("entropy exhausted"))

	_, err := s.svc.Submit(s.ctx, s.caller, service.SubmitCommand{
		Name: "N", Email: "n@example.org", Secret: "long-enough", Role: domain.RoleMember, SectorCode: "ti",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *FailureSuite) TestSubmitRacingPendingRequest() {
	s.sectors.EXPECT().FindByCode(gomock.Any(), "TI").Return(&accountmodels.Sector{ID: 2, Code: "TI"}, nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.accounts.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, nil)
	s.requests.EXPECT().PendingEmailExists(gomock.Any(), gomock.Any()).Return(false, nil)
	s.hasher.EXPECT().Hash(gomock.Any()).Return("hash", nil)
	s.requests.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

	_, err := s.svc.Submit(s.ctx, s.caller, service.SubmitCommand{
		Name: "N", Email: "n@example.org", Secret: "long-enough", Role: domain.RoleMember, SectorCode: "TI",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *FailureSuite) TestResolveAccountLostRace() {
	s.accounts.EXPECT().FindByID(gomock.Any(), domain.AccountID(7)).Return(&accountmodels.Account{
		ID: 7, Role: domain.RoleMember, SectorID: 2, Status: domain.AccountStatusPending,
	}, nil)
	s.enforcer.EXPECT().Check(gomock.Any(), gomock.Any(), domain.SectorID(2), gomock.Any(), gomock.Any()).Return(nil)
	s.accounts.EXPECT().UpdateStatusIf(gomock.Any(), domain.AccountID(7),
		domain.AccountStatusPending, domain.AccountStatusActivePendingOnboarding, gomock.Any()).Return(sentinel.ErrInvalidState)

	err := s.svc.ApproveAccount(s.ctx, s.caller, 7)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyProcessed))
}
