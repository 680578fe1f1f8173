// Package memory is an in-process keycache.Store backed by go-cache.
//
// It can delay the visibility of writes to reproduce the read-after-write lag
// of an eventually consistent edge store.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = time.Minute

type entry struct {
	value     string
	visibleAt time.Time
}

// Store implements keycache.Store in memory.
type Store struct {
	c     *gocache.Cache
	delay time.Duration
	now   func() time.Time

	mu   sync.Mutex
	puts int
}

// Option configures a Store.
type Option func(*Store)

// WithPropagationDelay hides every write from Get for d.
func WithPropagationDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithClock sets the time source used for propagation delay.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		c:   gocache.New(gocache.NoExpiration, cleanupInterval),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	e, ok := v.(entry)
	if !ok || s.now().Before(e.visibleAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.c.Set(key, entry{value: value, visibleAt: s.now().Add(s.delay)}, ttl)
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return nil
}

// Puts returns the number of writes accepted so far.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Len returns the number of unexpired entries, visible or not.
func (s *Store) Len() int { return s.c.ItemCount() }
