// Package keycache resolves provider signing keys by kid through a shared
// cache-aside store.
//
// # Protocol
//
// For each lookup the cache reads "<prefix><kid>.data". On a miss it reads
// "<prefix><kid>.lock":
//
//   - no lock: write the lock (short TTL), fetch the key set, persist the
//     requested key (long TTL) if present;
//   - lock present: fetch the key set and return the result without
//     persisting.
//
// The lock is advisory. It is never released and never waited on; it only
// narrows the window in which several callers persist the same key. Unknown
// kids are not cached, so every lookup for one refetches.
package keycache
