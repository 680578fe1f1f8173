// Package autherr defines the small error taxonomy shared by the token parser,
// the key set fetcher, and the key cache.
//
// Callers branch on [Kind] (via [KindOf], [IsKind], or errors.Is against the
// sentinels) and read structured fields from [Error] instead of matching
// message text.
//
// # What this package must NOT do
//
//   - Represent negative validation outcomes (bad signature, expired token,
//     claim mismatch, unknown kid). Those are a false verdict, not an error.
//   - Import any other edgeAuth package.
package autherr
