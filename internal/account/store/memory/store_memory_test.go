package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"govportal/internal/account/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx       context.Context
	sectors   *SectorStore
	functions *FunctionStore
	accounts  *AccountStore
	sectorID  domain.SectorID
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.sectors = NewSectorStore()
	s.functions = NewFunctionStore()
	s.accounts = NewAccountStore(s.sectors)

	sector, err := models.NewSector("Finance", "fin", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.sectors.Create(s.ctx, sector))
	s.sectorID = sector.ID
}

func (s *MemoryStoreSuite) newAccount(email, name string, role domain.Role) *models.Account {
	a, err := models.NewAccount(models.NewAccountParams{
		Email:      email,
		Name:       name,
		SecretHash: "hash",
		Role:       role,
		SectorID:   s.sectorID,
		Status:     domain.AccountStatusActive,
	}, time.Now())
	s.Require().NoError(err)
	return a
}

func (s *MemoryStoreSuite) TestCreateAssignsIDAndJoinsSector() {
	a := s.newAccount("ana@example.org", "Ana", domain.RoleMember)
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	s.NotZero(a.ID)

	got, err := s.accounts.FindByEmail(s.ctx, "ana@example.org")
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)
	s.Equal("FIN", got.SectorCode)
	s.Equal("Finance", got.SectorName)
}

func (s *MemoryStoreSuite) TestDuplicateEmailConflicts() {
	s.Require().NoError(s.accounts.Create(s.ctx, s.newAccount("ana@example.org", "Ana", domain.RoleMember)))
	err := s.accounts.Create(s.ctx, s.newAccount("ana@example.org", "Other", domain.RoleMember))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestConcurrentCreateSameEmailSingleWinner() {
	const goroutines = 32
	var wg sync.WaitGroup
	var created atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.accounts.Create(s.ctx, s.newAccount("race@example.org", "Race", domain.RoleMember)) == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
}

func (s *MemoryStoreSuite) TestListFiltersAndOrders() {
	other, err := models.NewSector("Legal", "LEG", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.sectors.Create(s.ctx, other))

	s.Require().NoError(s.accounts.Create(s.ctx, s.newAccount("zoe@example.org", "Zoe", domain.RoleMember)))
	s.Require().NoError(s.accounts.Create(s.ctx, s.newAccount("bruno@example.org", "Bruno", domain.RoleCoordinator)))
	elsewhere := s.newAccount("carla@example.org", "Carla", domain.RoleMember)
	elsewhere.SectorID = other.ID
	s.Require().NoError(s.accounts.Create(s.ctx, elsewhere))

	all, err := s.accounts.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"Bruno", "Carla", "Zoe"}, []string{all[0].Name, all[1].Name, all[2].Name})

	scoped, err := s.accounts.List(s.ctx, models.ListFilter{SectorID: s.sectorID})
	s.Require().NoError(err)
	s.Len(scoped, 2)

	bySectorCode, err := s.accounts.List(s.ctx, models.ListFilter{Search: "leg"})
	s.Require().NoError(err)
	s.Require().Len(bySectorCode, 1)
	s.Equal("Carla", bySectorCode[0].Name)

	none, err := s.accounts.List(s.ctx, models.ListFilter{Statuses: []domain.AccountStatus{domain.AccountStatusPending}})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *MemoryStoreSuite) TestUpdateStatusIfIsCompareAndSwap() {
	a := s.newAccount("ana@example.org", "Ana", domain.RoleMember)
	a.Status = domain.AccountStatusActivePendingOnboarding
	s.Require().NoError(s.accounts.Create(s.ctx, a))

	now := time.Now()
	s.Require().NoError(s.accounts.UpdateStatusIf(s.ctx, a.ID, domain.AccountStatusActivePendingOnboarding, domain.AccountStatusActive, now))
	err := s.accounts.UpdateStatusIf(s.ctx, a.ID, domain.AccountStatusActivePendingOnboarding, domain.AccountStatusActive, now)
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.ErrorIs(s.accounts.UpdateStatusIf(s.ctx, 999, domain.AccountStatusPending, domain.AccountStatusActive, now), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpdateMovesEmailIndex() {
	a := s.newAccount("ana@example.org", "Ana", domain.RoleMember)
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	taken := s.newAccount("bia@example.org", "Bia", domain.RoleMember)
	s.Require().NoError(s.accounts.Create(s.ctx, taken))

	a.Email = "bia@example.org"
	s.ErrorIs(s.accounts.Update(s.ctx, a), sentinel.ErrConflict)

	a.Email = "ana.souza@example.org"
	s.Require().NoError(s.accounts.Update(s.ctx, a))
	exists, err := s.accounts.ExistsByEmail(s.ctx, "ana@example.org")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *MemoryStoreSuite) TestDeleteRefusedWhileCreatorOfOthers() {
	creator := s.newAccount("boss@example.org", "Boss", domain.RoleCoordinator)
	s.Require().NoError(s.accounts.Create(s.ctx, creator))
	child := s.newAccount("kid@example.org", "Kid", domain.RoleMember)
	child.CreatedBy = creator.ID
	s.Require().NoError(s.accounts.Create(s.ctx, child))

	s.ErrorIs(s.accounts.Delete(s.ctx, creator.ID), sentinel.ErrReferenced)
	s.Require().NoError(s.accounts.Delete(s.ctx, child.ID))
	s.Require().NoError(s.accounts.Delete(s.ctx, creator.ID))
	s.ErrorIs(s.accounts.Delete(s.ctx, creator.ID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestRollbackUndoesJournaledWrites() {
	kept := s.newAccount("kept@example.org", "Kept", domain.RoleMember)
	s.Require().NoError(s.accounts.Create(s.ctx, kept))

	journal := &txcontext.Journal{}
	ctx := txcontext.WithJournal(s.ctx, journal)
	s.Require().NoError(s.accounts.Create(ctx, s.newAccount("ana@example.org", "Ana", domain.RoleMember)))
	renamed := *kept
	renamed.Email = "renamed@example.org"
	s.Require().NoError(s.accounts.Update(ctx, &renamed))
	s.Require().NoError(s.accounts.UpdateStatusIf(ctx, kept.ID, domain.AccountStatusActive, domain.AccountStatusInactive, time.Now()))

	journal.Rollback()

	exists, err := s.accounts.ExistsByEmail(s.ctx, "ana@example.org")
	s.Require().NoError(err)
	s.False(exists)
	got, err := s.accounts.FindByEmail(s.ctx, "kept@example.org")
	s.Require().NoError(err)
	s.Equal(domain.AccountStatusActive, got.Status)
	exists, err = s.accounts.ExistsByEmail(s.ctx, "renamed@example.org")
	s.Require().NoError(err)
	s.False(exists)
}

func TestSectorStore(t *testing.T) {
	ctx := context.Background()
	store := NewSectorStore()

	fin, err := models.NewSector("Finance", "FIN", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, fin))

	dup, err := models.NewSector("Other", "fin", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(ctx, dup), sentinel.ErrConflict)

	got, err := store.FindByCode(ctx, " fin ")
	require.NoError(t, err)
	assert.Equal(t, fin.ID, got.ID)

	require.NoError(t, store.Delete(ctx, fin.ID))
	_, err = store.FindByID(ctx, fin.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFunctionStoreNamesAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewFunctionStore()

	fn, err := models.NewFunction("Analyst", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, fn))

	dup, err := models.NewFunction("ANALYST", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(ctx, dup), sentinel.ErrConflict)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
