// Package memory holds in-process account, sector and function stores used
// when no database is configured and in unit tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"govportal/internal/account/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type SectorStore struct {
	mu      sync.RWMutex
	sectors map[domain.SectorID]models.Sector
	nextID  domain.SectorID
}

func NewSectorStore() *SectorStore {
	return &SectorStore{sectors: make(map[domain.SectorID]models.Sector), nextID: 1}
}

func (s *SectorStore) Create(_ context.Context, sector *models.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTakenLocked(sector.Code, 0) {
		return sentinel.ErrConflict
	}
	sector.ID = s.nextID
	s.nextID++
	s.sectors[sector.ID] = *sector
	return nil
}

func (s *SectorStore) FindByID(_ context.Context, id domain.SectorID) (*models.Sector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sector, ok := s.sectors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &sector, nil
}

func (s *SectorStore) FindByCode(_ context.Context, code string) (*models.Sector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code = models.NormalizeSectorCode(code)
	for _, sector := range s.sectors {
		if sector.Code == code {
			return &sector, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns sectors ordered by name.
func (s *SectorStore) List(_ context.Context) ([]*models.Sector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Sector, 0, len(s.sectors))
	for _, sector := range s.sectors {
		out = append(out, &sector)
	}
	slices.SortFunc(out, func(a, b *models.Sector) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

func (s *SectorStore) Update(_ context.Context, sector *models.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sectors[sector.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.codeTakenLocked(sector.Code, sector.ID) {
		return sentinel.ErrConflict
	}
	s.sectors[sector.ID] = *sector
	return nil
}

// Delete removes a sector. Reference checks belong to the caller; the
// postgres store enforces them with foreign keys as well.
func (s *SectorStore) Delete(_ context.Context, id domain.SectorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sectors[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sectors, id)
	return nil
}

func (s *SectorStore) codeTakenLocked(code string, except domain.SectorID) bool {
	for id, sector := range s.sectors {
		if id != except && sector.Code == code {
			return true
		}
	}
	return false
}

func (s *SectorStore) lookup(id domain.SectorID) (models.Sector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sector, ok := s.sectors[id]
	return sector, ok
}
