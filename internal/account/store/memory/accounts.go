package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"govportal/internal/account/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

// AccountStore keeps accounts keyed by id with a unique email index. Sector
// code and name are joined from the sector store on read.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]models.Account
	byEmail  map[string]domain.AccountID
	nextID   domain.AccountID
	sectors  *SectorStore
}

func NewAccountStore(sectors *SectorStore) *AccountStore {
	return &AccountStore{
		accounts: make(map[domain.AccountID]models.Account),
		byEmail:  make(map[string]domain.AccountID),
		nextID:   1,
		sectors:  sectors,
	}
}

func (s *AccountStore) Create(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[a.Email]; taken {
		return sentinel.ErrConflict
	}
	a.ID = s.nextID
	s.nextID++
	s.accounts[a.ID] = *a
	s.byEmail[a.Email] = a.ID
	id := a.ID
	txcontext.OnRollback(ctx, func() { s.remove(id) })
	return nil
}

func (s *AccountStore) FindByID(_ context.Context, id domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	a, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.joined(a), nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	a := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.joined(a), nil
}

func (s *AccountStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

// List returns matching accounts ordered by name, then id.
func (s *AccountStore) List(_ context.Context, f models.ListFilter) ([]*models.Account, error) {
	s.mu.RLock()
	snapshot := slices.Collect(maps.Values(s.accounts))
	s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := []*models.Account{}
	for _, a := range snapshot {
		if !f.SectorID.IsZero() && a.SectorID != f.SectorID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		joined := s.joined(a)
		if needle != "" && !matches(joined, needle) {
			continue
		}
		out = append(out, joined)
	}
	slices.SortFunc(out, func(a, b *models.Account) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Offset >= len(out) {
		return []*models.Account{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(a *models.Account, needle string) bool {
	return strings.Contains(strings.ToLower(a.Name), needle) ||
		strings.Contains(a.Email, needle) ||
		strings.Contains(strings.ToLower(a.SectorCode), needle)
}

// Update replaces the mutable fields of an existing account.
func (s *AccountStore) Update(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Email != current.Email {
		if _, taken := s.byEmail[a.Email]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, current.Email)
		s.byEmail[a.Email] = a.ID
	}
	stored := *a
	stored.SectorCode, stored.SectorName = "", ""
	s.accounts[a.ID] = stored
	txcontext.OnRollback(ctx, func() { s.put(current) })
	return nil
}

// UpdateStatusIf moves an account from one status to another atomically.
// It returns ErrInvalidState when the current status is not from.
func (s *AccountStore) UpdateStatusIf(ctx context.Context, id domain.AccountID, from, to domain.AccountStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != from {
		return sentinel.ErrInvalidState
	}
	prev := a
	a.Status = to
	a.UpdatedAt = now
	s.accounts[id] = a
	txcontext.OnRollback(ctx, func() { s.put(prev) })
	return nil
}

func (s *AccountStore) UpdateSecret(ctx context.Context, id domain.AccountID, hash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	prev := a
	a.SecretHash = hash
	a.UpdatedAt = now
	s.accounts[id] = a
	txcontext.OnRollback(ctx, func() { s.put(prev) })
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, other := range s.accounts {
		if other.CreatedBy == id {
			return sentinel.ErrReferenced
		}
	}
	delete(s.accounts, id)
	delete(s.byEmail, a.Email)
	txcontext.OnRollback(ctx, func() { s.put(a) })
	return nil
}

func (s *AccountStore) CountBySector(_ context.Context, id domain.SectorID) (int, error) {
	return s.count(func(a models.Account) bool { return a.SectorID == id }), nil
}

func (s *AccountStore) CountByFunction(_ context.Context, id domain.FunctionID) (int, error) {
	return s.count(func(a models.Account) bool { return a.FunctionID == id }), nil
}

func (s *AccountStore) CountCreatedBy(_ context.Context, id domain.AccountID) (int, error) {
	return s.count(func(a models.Account) bool { return a.CreatedBy == id }), nil
}

func (s *AccountStore) HasMaster(_ context.Context) (bool, error) {
	return s.count(func(a models.Account) bool { return a.Role == domain.RoleMaster }) > 0, nil
}

func (s *AccountStore) count(pred func(models.Account) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.accounts {
		if pred(a) {
			n++
		}
	}
	return n
}

// put restores a row as it was before a rolled back write. The caller holds
// no lock.
func (s *AccountStore) put(prev models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.accounts[prev.ID]; ok && s.byEmail[cur.Email] == cur.ID {
		delete(s.byEmail, cur.Email)
	}
	s.accounts[prev.ID] = prev
	s.byEmail[prev.Email] = prev.ID
}

func (s *AccountStore) remove(id domain.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		if s.byEmail[a.Email] == id {
			delete(s.byEmail, a.Email)
		}
		delete(s.accounts, id)
	}
}

func (s *AccountStore) joined(a models.Account) *models.Account {
	if s.sectors != nil && !a.SectorID.IsZero() {
		if sector, ok := s.sectors.lookup(a.SectorID); ok {
			a.SectorCode = sector.Code
			a.SectorName = sector.Name
		}
	}
	return &a
}
