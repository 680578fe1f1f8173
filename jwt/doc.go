// Package jwt decodes compact identity tokens and verifies their RS256
// signatures against PEM-encoded provider keys.
//
// [Decode] is purely structural and performs no I/O. [VerifyRS256] covers the
// signature step only; claim policy (exp, iss, aud, token_use) belongs to the
// validator in the root package.
//
// [Signer] mints provider-shaped tokens from a local key pair for tests and
// load generation.
package jwt
