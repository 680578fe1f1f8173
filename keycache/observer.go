package keycache

import "time"

// Event identifies a step of the resolution protocol.
type Event uint8

const (
	EventHit Event = iota
	EventMiss
	EventLockAcquired
	EventLockContended
	EventFetch
	EventFetchError
	EventKidNotFound
	EventStored
	EventCorruptEntry
)

func (e Event) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventLockAcquired:
		return "lock_acquired"
	case EventLockContended:
		return "lock_contended"
	case EventFetch:
		return "fetch"
	case EventFetchError:
		return "fetch_error"
	case EventKidNotFound:
		return "kid_not_found"
	case EventStored:
		return "stored"
	case EventCorruptEntry:
		return "corrupt_entry"
	default:
		return "unknown"
	}
}

// Observer receives protocol events. elapsed is set for EventFetch and
// EventFetchError and zero otherwise. Implementations must be cheap and safe
// for concurrent use.
type Observer interface {
	ObserveKeyCache(ev Event, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveKeyCache(Event, time.Duration) {}
