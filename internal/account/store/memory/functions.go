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

type FunctionStore struct {
	mu        sync.RWMutex
	functions map[domain.FunctionID]models.Function
	nextID    domain.FunctionID
}

func NewFunctionStore() *FunctionStore {
	return &FunctionStore{functions: make(map[domain.FunctionID]models.Function), nextID: 1}
}

func (s *FunctionStore) Create(_ context.Context, fn *models.Function) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.functions {
		if strings.EqualFold(existing.Name, fn.Name) {
			return sentinel.ErrConflict
		}
	}
	fn.ID = s.nextID
	s.nextID++
	s.functions[fn.ID] = *fn
	return nil
}

func (s *FunctionStore) FindByID(_ context.Context, id domain.FunctionID) (*models.Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.functions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &fn, nil
}

func (s *FunctionStore) List(_ context.Context) ([]*models.Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Function, 0, len(s.functions))
	for _, fn := range s.functions {
		out = append(out, &fn)
	}
	slices.SortFunc(out, func(a, b *models.Function) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

func (s *FunctionStore) Delete(_ context.Context, id domain.FunctionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.functions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.functions, id)
	return nil
}
