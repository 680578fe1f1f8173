// Package jwks retrieves a provider's published key set and converts each RSA
// entry to SPKI PEM text keyed by kid.
//
// A Fetcher performs exactly one HTTP request per FetchKeySet call and holds
// no cache; caching is the job of package keycache.
package jwks
