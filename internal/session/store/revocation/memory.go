// Package revocation holds the refresh-token revocation list. Entries are
// keyed by jti and live only until the token would have expired anyway.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// MemoryList is an in-process revocation list for single-instance deployments and tests.
type MemoryList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   Clock
}

type MemoryOption func(*MemoryList)

func WithMemoryClock(clock Clock) MemoryOption {
	return func(l *MemoryList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewMemoryList(opts ...MemoryOption) *MemoryList {
	l := &MemoryList{revoked: make(map[string]time.Time), clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Revoke marks jti revoked for ttl. Expired entries are swept on write.
func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	for k, exp := range l.revoked {
		if !now.Before(exp) {
			delete(l.revoked, k)
		}
	}
	l.revoked[jti] = now.Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.revoked[jti]
	return ok && l.clock().Before(exp), nil
}
