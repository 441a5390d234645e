package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "govportal/internal/account/models"
	accountmem "govportal/internal/account/store/memory"
	"govportal/internal/audit"
	auditmem "govportal/internal/audit/store/memory"
	"govportal/internal/registration/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type RequestStoreSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	sectors   *accountmem.SectorStore
	accounts  *accountmem.AccountStore
	store     *RequestStore
	sector    *accountmodels.Sector
	nominator *accountmodels.Account
}

func TestRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreSuite))
}

func (s *RequestStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s.sectors = accountmem.NewSectorStore()
	s.accounts = accountmem.NewAccountStore(s.sectors)
	s.store = NewRequestStore(Joins{Sectors: s.sectors, Accounts: s.accounts})

	var err error
	s.sector, err = accountmodels.NewSector("Tecnologia", "TI", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.sectors.Create(s.ctx, s.sector))
	s.nominator, err = accountmodels.NewAccount(accountmodels.NewAccountParams{
		Email: "coord@example.org", Name: "Coord", SecretHash: "h",
		Role: domain.RoleCoordinator, SectorID: s.sector.ID, Status: domain.AccountStatusActive,
	}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(s.ctx, s.nominator))
}

func (s *RequestStoreSuite) newRequest(addr string, sector domain.SectorID, offset time.Duration) *models.Request {
	r, err := models.NewRequest(models.NewRequestParams{
		Email: addr, Name: "Nominee", SecretHash: "h", Role: domain.RoleMember,
		SectorID: sector, RequestedBy: s.nominator.ID,
	}, s.now.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *RequestStoreSuite) TestCreateAndFind() {
	r := s.newRequest("n@example.org", s.sector.ID, 0)
	s.NotZero(r.ID)

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("TI", got.SectorCode)
	s.Equal("Coord", got.RequestedByName)
	s.Equal(domain.RequestStatusPending, got.Status)

	_, err = s.store.FindByID(s.ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RequestStoreSuite) TestPendingEmailIsUnique() {
	r := s.newRequest("n@example.org", s.sector.ID, 0)

	dup, err := models.NewRequest(models.NewRequestParams{
		Email: "n@example.org", Name: "Again", SecretHash: "h", Role: domain.RoleMember,
		SectorID: s.sector.ID, RequestedBy: s.nominator.ID,
	}, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)

	exists, err := s.store.PendingEmailExists(s.ctx, "n@example.org")
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.store.RejectIf(s.ctx, r.ID, s.nominator.ID, "", s.now))
	exists, err = s.store.PendingEmailExists(s.ctx, "n@example.org")
	s.Require().NoError(err)
	s.False(exists)
	s.NoError(s.store.Create(s.ctx, dup), "a resolved request frees the address")
}

func (s *RequestStoreSuite) TestConditionalResolution() {
	r := s.newRequest("n@example.org", s.sector.ID, 0)

	s.Require().NoError(s.store.MarkApproved(s.ctx, r.ID, 77, s.nominator.ID, s.now))
	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusApproved, got.Status)
	s.Equal(domain.AccountID(77), got.AccountID)
	s.Require().NotNil(got.ResolvedAt)

	s.ErrorIs(s.store.MarkApproved(s.ctx, r.ID, 78, s.nominator.ID, s.now), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.RejectIf(s.ctx, r.ID, s.nominator.ID, "late", s.now), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.RejectIf(s.ctx, 999, s.nominator.ID, "", s.now), sentinel.ErrNotFound)
}

func (s *RequestStoreSuite) TestConcurrentRejectHasOneWinner() {
	r := s.newRequest("n@example.org", s.sector.ID, 0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RejectIf(s.ctx, r.ID, s.nominator.ID, "", s.now)
			if err == nil {
				wins.Add(1)
			} else if !errors.Is(err, sentinel.ErrInvalidState) {
				s.Fail("unexpected error", err)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *RequestStoreSuite) TestListPending() {
	other, err := accountmodels.NewSector("Recursos Humanos", "RH", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.sectors.Create(s.ctx, other))

	older := s.newRequest("a@example.org", s.sector.ID, 0)
	newer := s.newRequest("b@example.org", s.sector.ID, time.Minute)
	foreign := s.newRequest("c@example.org", other.ID, 2*time.Minute)
	resolved := s.newRequest("d@example.org", s.sector.ID, 3*time.Minute)
	s.Require().NoError(s.store.RejectIf(s.ctx, resolved.ID, s.nominator.ID, "", s.now))

	all, err := s.store.ListPending(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]domain.RequestID{foreign.ID, newer.ID, older.ID}, []domain.RequestID{all[0].ID, all[1].ID, all[2].ID})

	scoped, err := s.store.ListPending(s.ctx, s.sector.ID)
	s.Require().NoError(err)
	s.Require().Len(scoped, 2)
	s.Equal(newer.ID, scoped[0].ID)
}

func (s *RequestStoreSuite) TestCountByAccount() {
	r := s.newRequest("n@example.org", s.sector.ID, 0)
	n, err := s.store.CountByAccount(s.ctx, s.nominator.ID)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.Require().NoError(s.store.MarkApproved(s.ctx, r.ID, 77, 5, s.now))
	for id, want := range map[domain.AccountID]int{77: 1, 5: 1, 1234: 0} {
		n, err := s.store.CountByAccount(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(want, n)
	}
}

func (s *RequestStoreSuite) TestTxRunnerRollsBackEveryStore() {
	runner := NewTxRunner()
	r := s.newRequest("n@example.org", s.sector.ID, 0)
	boom := errors.New("boom")

	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		a, err := accountmodels.NewAccount(r.AccountParams(s.nominator.ID), s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.accounts.Create(ctx, a))
		s.Require().NoError(s.store.MarkApproved(ctx, r.ID, a.ID, s.nominator.ID, s.now))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusPending, got.Status)
	exists, err := s.accounts.ExistsByEmail(s.ctx, "n@example.org")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RequestStoreSuite) TestTxRollbackKeepsConcurrentWrites() {
	ledger := auditmem.NewInMemoryStore()
	approving := s.newRequest("a@example.org", s.sector.ID, 0)
	rejecting := s.newRequest("b@example.org", s.sector.ID, time.Minute)
	boom := errors.New("boom")

	err := NewTxRunner().RunInTx(s.ctx, func(ctx context.Context) error {
		a, err := accountmodels.NewAccount(approving.AccountParams(s.nominator.ID), s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.accounts.Create(ctx, a))
		s.Require().NoError(s.store.MarkApproved(ctx, approving.ID, a.ID, s.nominator.ID, s.now))
		s.Require().NoError(ledger.Append(ctx, &audit.Record{Action: audit.ActionRegistrationApproved, Timestamp: s.now}))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.RejectIf(s.ctx, rejecting.ID, s.nominator.ID, "duplicate", s.now))
			s.NoError(ledger.Append(s.ctx, &audit.Record{Action: audit.ActionRegistrationRejected, Timestamp: s.now}))
		}()
		wg.Wait()
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, rejecting.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusRejected, got.Status)
	got, err = s.store.FindByID(s.ctx, approving.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusPending, got.Status)

	exists, err := s.accounts.ExistsByEmail(s.ctx, "a@example.org")
	s.Require().NoError(err)
	s.False(exists)

	recs, err := ledger.Query(s.ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(audit.ActionRegistrationRejected, recs[0].Action)
}

func (s *RequestStoreSuite) TestTxRunnerRefusesCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	err := NewTxRunner().RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	s.ErrorIs(err, context.Canceled)
	s.False(called)
}
