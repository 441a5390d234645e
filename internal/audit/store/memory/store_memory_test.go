package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govportal/internal/audit"
	"govportal/pkg/domain"
	txcontext "govportal/pkg/platform/tx"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.base = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) add(actor domain.AccountID, sector domain.SectorID, action audit.Action, offset time.Duration) audit.Record {
	rec := audit.Record{Action: action, Timestamp: s.base.Add(offset), Detail: map[string]any{"k": "v"}}
	if actor != 0 {
		rec.ActorID = &actor
	}
	if sector != 0 {
		rec.SectorID = &sector
	}
	s.Require().NoError(s.store.Append(context.Background(), &rec))
	return rec
}

func (s *InMemoryStoreSuite) TestAppendAssignsIncreasingIDs() {
	a := s.add(1, 1, audit.ActionLoginSuccess, 0)
	b := s.add(1, 1, audit.ActionLogout, time.Minute)
	s.Equal(domain.RecordID(1), a.ID)
	s.Equal(domain.RecordID(2), b.ID)
}

func (s *InMemoryStoreSuite) TestQuery() {
	ctx := context.Background()
	s.add(1, 10, audit.ActionLoginSuccess, 0)
	s.add(2, 20, audit.ActionRegistrationApproved, time.Hour)
	s.add(1, 10, audit.ActionRegistrationRejected, 2*time.Hour)
	s.add(0, 0, audit.ActionLoginUnknownEmail, 3*time.Hour)

	s.Run("newest first", func() {
		recs, err := s.store.Query(ctx, audit.Filter{})
		s.Require().NoError(err)
		s.Require().Len(recs, 4)
		s.Equal(audit.ActionLoginUnknownEmail, recs[0].Action)
		s.Equal(audit.ActionLoginSuccess, recs[3].Action)
	})

	s.Run("sector scope excludes other sectors and sectorless rows", func() {
		recs, err := s.store.Query(ctx, audit.Filter{SectorID: 10})
		s.Require().NoError(err)
		s.Len(recs, 2)
		for _, r := range recs {
			s.Equal(domain.SectorID(10), *r.SectorID)
		}
	})

	s.Run("action like is case insensitive substring", func() {
		recs, err := s.store.Query(ctx, audit.Filter{ActionLike: "REGISTRATION"})
		s.Require().NoError(err)
		s.Len(recs, 2)
	})

	s.Run("date window is half open", func() {
		recs, err := s.store.Query(ctx, audit.Filter{From: s.base.Add(time.Hour), Until: s.base.Add(2 * time.Hour)})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal(audit.ActionRegistrationApproved, recs[0].Action)
	})

	s.Run("actor and paging", func() {
		recs, err := s.store.Query(ctx, audit.Filter{ActorID: 1, Limit: 1, Offset: 1})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal(audit.ActionLoginSuccess, recs[0].Action)
	})
}

func (s *InMemoryStoreSuite) TestCountByActor() {
	s.add(5, 1, audit.ActionLoginSuccess, 0)
	s.add(5, 1, audit.ActionLogout, time.Minute)
	s.add(6, 1, audit.ActionLogout, time.Minute)

	n, err := s.store.CountByActor(context.Background(), 5)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *InMemoryStoreSuite) TestRollbackRemovesOnlyJournaledRecords() {
	s.add(1, 1, audit.ActionLoginSuccess, 0)
	journal := &txcontext.Journal{}
	ctx := txcontext.WithJournal(context.Background(), journal)
	inTx := audit.Record{Action: audit.ActionRegistrationApproved, Timestamp: s.base}
	s.Require().NoError(s.store.Append(ctx, &inTx))
	outside := s.add(2, 1, audit.ActionAccessDenied, time.Minute)

	journal.Rollback()

	recs, err := s.store.Query(context.Background(), audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(outside.ID, recs[0].ID)
	next := s.add(1, 1, audit.ActionLogout, 2*time.Minute)
	s.Equal(domain.RecordID(4), next.ID, "ids are never reused")
}
