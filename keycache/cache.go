package keycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/edgeAuth/jwks"
)

const (
	// DefaultKeyPrefix namespaces every entry written by the cache.
	DefaultKeyPrefix = "edgeauth.jwt.validate.pem."
	// DefaultKeyTTL is how long a resolved key stays cached (14 days).
	DefaultKeyTTL = 14 * 24 * time.Hour
	// DefaultLockTTL is how long a fetch lock suppresses duplicate persists.
	DefaultLockTTL = 62 * time.Second

	dataSuffix = ".data"
	lockSuffix = ".lock"
)

// Cache resolves signing keys by kid. It holds no mutable state of its own and
// is safe for concurrent use.
type Cache struct {
	store    Store
	fetcher  KeySetFetcher
	prefix   string
	keyTTL   time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithKeyTTL overrides DefaultKeyTTL.
func WithKeyTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.keyTTL = ttl }
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.lockTTL = ttl }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock sets the time source used for lock timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Cache over store that fetches through fetcher.
func New(store Store, fetcher KeySetFetcher, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("keycache: nil store")
	}
	if fetcher == nil {
		return nil, errors.New("keycache: nil fetcher")
	}
	c := &Cache{
		store:    store,
		fetcher:  fetcher,
		prefix:   DefaultKeyPrefix,
		keyTTL:   DefaultKeyTTL,
		lockTTL:  DefaultLockTTL,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.keyTTL <= 0 || c.lockTTL <= 0 {
		return nil, errors.New("keycache: ttl values must be > 0")
	}
	return c, nil
}

// DataKey returns the store key holding kid's PEM.
func (c *Cache) DataKey(kid string) string { return c.prefix + kid + dataSuffix }

// LockKey returns the store key holding kid's fetch lock.
func (c *Cache) LockKey(kid string) string { return c.prefix + kid + lockSuffix }

// GetKeyForKid returns the signing key for kid, fetching the key set from
// endpoint on a cache miss. It returns nil, nil when the provider does not
// publish kid.
//
// Fetch, key encoding and store failures are returned as errors and never
// reported as an unknown kid.
func (c *Cache) GetKeyForKid(ctx context.Context, endpoint, kid string) (*jwks.SigningKey, error) {
	dataKey := c.DataKey(kid)

	raw, ok, err := c.store.Get(ctx, dataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreUnavailable, dataKey, err)
	}
	if ok {
		var pem string
		if err := json.Unmarshal([]byte(raw), &pem); err == nil && pem != "" {
			c.observer.ObserveKeyCache(EventHit, 0)
			return &jwks.SigningKey{Kid: kid, PublicKeyPEM: pem}, nil
		}
		c.observer.ObserveKeyCache(EventCorruptEntry, 0)
		c.logger.Warn("discarding unreadable cached key", zap.String("key", dataKey))
	}
	c.observer.ObserveKeyCache(EventMiss, 0)

	lockKey := c.LockKey(kid)
	lockRaw, locked, err := c.store.Get(ctx, lockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreUnavailable, lockKey, err)
	}

	if locked {
		c.observer.ObserveKeyCache(EventLockContended, 0)
		c.logger.Debug("key fetch already in progress elsewhere",
			zap.String("kid", kid), zap.Duration("lockAge", c.lockAge(lockRaw)))
		return c.fetch(ctx, endpoint, kid)
	}

	lock, err := json.Marshal(Lock{LockCreated: c.now().UnixMilli()})
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, lockKey, string(lock), c.lockTTL); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrStoreUnavailable, lockKey, err)
	}
	c.observer.ObserveKeyCache(EventLockAcquired, 0)

	key, err := c.fetch(ctx, endpoint, kid)
	if err != nil || key == nil {
		return nil, err
	}
	if err := c.put(ctx, *key); err != nil {
		return nil, err
	}
	return key, nil
}

// Prime stores key as if it had just been fetched.
func (c *Cache) Prime(ctx context.Context, key jwks.SigningKey) error {
	if key.Kid == "" || key.PublicKeyPEM == "" {
		return errors.New("keycache: prime requires kid and pem")
	}
	return c.put(ctx, key)
}

func (c *Cache) fetch(ctx context.Context, endpoint, kid string) (*jwks.SigningKey, error) {
	start := c.now()
	keys, err := c.fetcher.FetchKeySet(ctx, endpoint)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.observer.ObserveKeyCache(EventFetchError, elapsed)
		return nil, err
	}
	c.observer.ObserveKeyCache(EventFetch, elapsed)

	key, ok := keys[kid]
	if !ok {
		c.observer.ObserveKeyCache(EventKidNotFound, 0)
		c.logger.Debug("kid not published by provider",
			zap.String("kid", kid), zap.Int("published", len(keys)))
		return nil, nil
	}
	return &key, nil
}

func (c *Cache) put(ctx context.Context, key jwks.SigningKey) error {
	value, err := json.Marshal(key.PublicKeyPEM)
	if err != nil {
		return err
	}
	dataKey := c.DataKey(key.Kid)
	if err := c.store.Put(ctx, dataKey, string(value), c.keyTTL); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStoreUnavailable, dataKey, err)
	}
	c.observer.ObserveKeyCache(EventStored, 0)
	return nil
}

func (c *Cache) lockAge(raw string) time.Duration {
	var l Lock
	if err := json.Unmarshal([]byte(raw), &l); err != nil || l.LockCreated == 0 {
		return 0
	}
	return c.now().Sub(time.UnixMilli(l.LockCreated))
}
