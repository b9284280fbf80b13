// internal/service/billing/doubles_test.go
package billing

import (
	"context"
	"sync"

	"fitcoach-service/internal/domain/billing"
	xerrors "fitcoach-service/internal/pkg/errors"
)

// memStore is an in-memory SubscriptionStore with call counters.
type memStore struct {
	mu   sync.Mutex
	subs map[int64]*billing.Subscription

	finds   int
	upserts int

	findErr   error
	upsertErr error
}

func newMemStore() *memStore {
	return &memStore{subs: make(map[int64]*billing.Subscription)}
}

func (s *memStore) FindByUserID(_ context.Context, userID int64) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}

	sub, ok := s.subs[userID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) Upsert(_ context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}

	cp := *sub
	s.subs[sub.UserID] = &cp
	return nil
}

func (s *memStore) get(userID int64) *billing.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[userID]
}

func (s *memStore) put(sub *billing.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
}

// memCache is an in-memory SubscriptionCache with call counters.
type memCache struct {
	mu      sync.Mutex
	entries map[int64]*billing.Subscription

	sets          int
	invalidations int

	getErr        error
	invalidateErr error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[int64]*billing.Subscription)}
}

func (c *memCache) Get(_ context.Context, userID int64) (*billing.Subscription, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, false, c.getErr
	}
	sub, ok := c.entries[userID]
	return sub, ok, nil
}

func (c *memCache) Set(_ context.Context, sub *billing.Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++
	c.entries[sub.UserID] = sub
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidations++
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	delete(c.entries, userID)
	return nil
}
