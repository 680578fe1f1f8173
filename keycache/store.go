package keycache

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/edgeAuth/jwks"
)

// ErrStoreUnavailable wraps every failure reported by a Store.
var ErrStoreUnavailable = errors.New("key cache store unavailable")

// Store is the eventually consistent key-value store shared by every
// validator instance.
//
// Get reports ok=false for a missing or expired key; err is reserved for
// backend failures. Put overwrites unconditionally and expires the entry after
// ttl.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}

// KeySetFetcher retrieves the full key set published under endpoint.
type KeySetFetcher interface {
	FetchKeySet(ctx context.Context, endpoint string) (map[string]jwks.SigningKey, error)
}

// Lock is the advisory marker stored under "<prefix><kid>.lock".
type Lock struct {
	// LockCreated is the creation time in Unix milliseconds.
	LockCreated int64 `json:"lockCreated"`
}
