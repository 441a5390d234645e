// Package memory keeps registration requests in process and provides the
// in-memory transaction runner that pairs with the other memory stores.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/registration/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

// Joins resolves the read-side columns. Either field may be nil.
type Joins struct {
	Sectors interface {
		FindByID(ctx context.Context, id domain.SectorID) (*accountmodels.Sector, error)
	}
	Accounts interface {
		FindByID(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	}
}

type RequestStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]models.Request
	nextID   domain.RequestID
	joins    Joins
}

func NewRequestStore(joins Joins) *RequestStore {
	return &RequestStore{
		requests: make(map[domain.RequestID]models.Request),
		nextID:   1,
		joins:    joins,
	}
}

func (s *RequestStore) Create(ctx context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.Status == domain.RequestStatusPending && existing.Email == r.Email {
			return sentinel.ErrConflict
		}
	}
	r.ID = s.nextID
	s.nextID++
	s.requests[r.ID] = *r
	id := r.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.requests, id)
	})
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	r, ok := s.requests[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.joined(ctx, r), nil
}

// FindForUpdate is FindByID; the memory transaction runner already serializes.
func (s *RequestStore) FindForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	return s.FindByID(ctx, id)
}

func (s *RequestStore) MarkApproved(ctx context.Context, id domain.RequestID, accountID, by domain.AccountID, now time.Time) error {
	return s.resolveIf(ctx, id, func(r *models.Request) {
		r.Status = domain.RequestStatusApproved
		r.AccountID = accountID
		r.ResolvedBy = by
		r.ResolvedAt = &now
	})
}

func (s *RequestStore) RejectIf(ctx context.Context, id domain.RequestID, by domain.AccountID, reason string, now time.Time) error {
	return s.resolveIf(ctx, id, func(r *models.Request) {
		r.Status = domain.RequestStatusRejected
		r.ResolvedBy = by
		r.ResolvedAt = &now
		r.Reason = reason
	})
}

// resolveIf applies mutate only while the request is still pending. A
// resolved request is terminal, so the undo step can restore the pending row
// without checking for later writers.
func (s *RequestStore) resolveIf(ctx context.Context, id domain.RequestID, mutate func(*models.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != domain.RequestStatusPending {
		return sentinel.ErrInvalidState
	}
	prev := r
	mutate(&r)
	s.requests[id] = r
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests[id] = prev
	})
	return nil
}

// ListPending returns pending requests newest first. A zero sector means all.
func (s *RequestStore) ListPending(ctx context.Context, sector domain.SectorID) ([]*models.Request, error) {
	s.mu.RLock()
	var pending []models.Request
	for _, r := range s.requests {
		if r.Status != domain.RequestStatusPending {
			continue
		}
		if !sector.IsZero() && r.SectorID != sector {
			continue
		}
		pending = append(pending, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(pending, func(a, b models.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	out := make([]*models.Request, len(pending))
	for i, r := range pending {
		out[i] = s.joined(ctx, r)
	}
	return out, nil
}

func (s *RequestStore) PendingEmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.Status == domain.RequestStatusPending && r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// CountByAccount counts requests an account filed, resolved or was created by.
func (s *RequestStore) CountByAccount(_ context.Context, id domain.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.requests {
		if r.RequestedBy == id || r.ResolvedBy == id || r.AccountID == id {
			n++
		}
	}
	return n, nil
}

func (s *RequestStore) joined(ctx context.Context, r models.Request) *models.Request {
	if s.joins.Sectors != nil {
		if sector, err := s.joins.Sectors.FindByID(ctx, r.SectorID); err == nil {
			r.SectorCode = sector.Code
		}
	}
	if s.joins.Accounts != nil {
		if a, err := s.joins.Accounts.FindByID(ctx, r.RequestedBy); err == nil {
			r.RequestedByName = a.Name
		}
	}
	return &r
}
