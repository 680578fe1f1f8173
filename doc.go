// Package edgeAuth verifies identity tokens issued by a third-party identity
// provider, resolving the provider's signing keys through a shared
// cache-aside store.
//
// A verdict is a plain bool: every policy rejection (unknown kid, bad
// signature, expired, wrong issuer, audience or token use) yields false with a
// nil error. Errors are reserved for tokens that cannot be decoded and for
// infrastructure faults (key set fetch, key encoding, cache store). Use
// errors.Is with [ErrMalformedToken], [ErrFetch], [ErrKeyEncoding] and
// [ErrStoreUnavailable] to tell them apart.
//
// # Architecture boundaries
//
// The root package owns [Validator], [Metrics] and [Config]. Token decoding and
// signature checks live in package jwt, key set retrieval in jwks and key
// resolution in keycache. HTTP glue lives in middleware and selftest.
//
// # Concurrency
//
// Validator, Metrics and every collaborator are safe for concurrent use. The
// only shared state is the external cache store.
package edgeAuth
