package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"govportal/internal/audit"
	"govportal/pkg/domain"
	txcontext "govportal/pkg/platform/tx"
)

// InMemoryStore keeps audit records in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
	nextID  domain.RecordID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

// Append assigns the next id. Ids are never reused, even when a transaction
// that appended a record rolls back.
func (s *InMemoryStore) Append(ctx context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	stored := *rec
	stored.Detail = maps.Clone(rec.Detail)
	s.records = append(s.records, stored)
	id := rec.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.records = slices.DeleteFunc(s.records, func(r audit.Record) bool { return r.ID == id })
	})
	return nil
}

// Query filters in memory. Read-side joins are left empty.
func (s *InMemoryStore) Query(_ context.Context, f audit.Filter) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(f.ActionLike)
	var out []audit.Record
	for _, rec := range s.records {
		if !f.SectorID.IsZero() && (rec.SectorID == nil || *rec.SectorID != f.SectorID) {
			continue
		}
		if !f.ActorID.IsZero() && (rec.ActorID == nil || *rec.ActorID != f.ActorID) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(string(rec.Action)), needle) {
			continue
		}
		if !f.From.IsZero() && rec.Timestamp.Before(f.From) {
			continue
		}
		if !f.Until.IsZero() && !rec.Timestamp.Before(f.Until) {
			continue
		}
		cp := rec
		cp.Detail = maps.Clone(rec.Detail)
		out = append(out, cp)
	}

	slices.SortStableFunc(out, func(a, b audit.Record) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if f.Offset >= len(out) {
		return []audit.Record{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) CountByActor(_ context.Context, actorID domain.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if rec.ActorID != nil && *rec.ActorID == actorID {
			n++
		}
	}
	return n, nil
}
