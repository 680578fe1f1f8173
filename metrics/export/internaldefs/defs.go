package internaldefs

import (
	edgeAuth "github.com/MrEthical07/edgeAuth"
)

// CounterDef names one edgeAuth counter for export.
type CounterDef struct {
	ID   edgeAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one edgeAuth latency histogram for export.
type HistogramDef struct {
	ID   edgeAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: edgeAuth.MetricValidateAccepted, Name: "edgeauth_validate_accepted_total", Help: "Tokens that passed every check."},
	{ID: edgeAuth.MetricValidateRejected, Name: "edgeauth_validate_rejected_total", Help: "Tokens rejected with a false verdict."},
	{ID: edgeAuth.MetricValidateMalformed, Name: "edgeauth_validate_malformed_total", Help: "Tokens that failed structural decoding."},
	{ID: edgeAuth.MetricValidateError, Name: "edgeauth_validate_error_total", Help: "Validations aborted by an infrastructure failure."},
	{ID: edgeAuth.MetricRejectMissingKid, Name: "edgeauth_reject_missing_kid_total", Help: "Rejections for a missing kid header."},
	{ID: edgeAuth.MetricRejectUnknownKid, Name: "edgeauth_reject_unknown_kid_total", Help: "Rejections for a kid the provider does not publish."},
	{ID: edgeAuth.MetricRejectAlgorithm, Name: "edgeauth_reject_algorithm_total", Help: "Rejections for an algorithm other than RS256."},
	{ID: edgeAuth.MetricRejectSignature, Name: "edgeauth_reject_signature_total", Help: "Rejections for a signature that does not verify."},
	{ID: edgeAuth.MetricRejectExpired, Name: "edgeauth_reject_expired_total", Help: "Rejections for a missing or past exp."},
	{ID: edgeAuth.MetricRejectIssuer, Name: "edgeauth_reject_issuer_total", Help: "Rejections for an iss mismatch."},
	{ID: edgeAuth.MetricRejectAudience, Name: "edgeauth_reject_audience_total", Help: "Rejections for an aud mismatch."},
	{ID: edgeAuth.MetricRejectTokenUse, Name: "edgeauth_reject_token_use_total", Help: "Rejections for a token_use other than id."},
	{ID: edgeAuth.MetricKeyCacheHit, Name: "edgeauth_keycache_hit_total", Help: "Key lookups served from the cache store."},
	{ID: edgeAuth.MetricKeyCacheMiss, Name: "edgeauth_keycache_miss_total", Help: "Key lookups not found in the cache store."},
	{ID: edgeAuth.MetricKeyCacheLockAcquired, Name: "edgeauth_keycache_lock_acquired_total", Help: "Misses that wrote the fetch lock."},
	{ID: edgeAuth.MetricKeyCacheLockContended, Name: "edgeauth_keycache_lock_contended_total", Help: "Misses that found a fetch lock already present."},
	{ID: edgeAuth.MetricKeyCacheStored, Name: "edgeauth_keycache_stored_total", Help: "Keys written to the cache store."},
	{ID: edgeAuth.MetricKeyCacheCorruptEntry, Name: "edgeauth_keycache_corrupt_entry_total", Help: "Unreadable cache entries discarded."},
	{ID: edgeAuth.MetricKeyFetch, Name: "edgeauth_key_fetch_total", Help: "Successful key set fetches."},
	{ID: edgeAuth.MetricKeyFetchError, Name: "edgeauth_key_fetch_error_total", Help: "Failed key set fetches."},
	{ID: edgeAuth.MetricKeyKidNotFound, Name: "edgeauth_key_kid_not_found_total", Help: "Fetched key sets that lacked the requested kid."},
}

var HistogramDefs = []HistogramDef{
	{ID: edgeAuth.MetricValidateLatency, Name: "edgeauth_validate_latency_seconds", Help: "Validate latency histogram."},
	{ID: edgeAuth.MetricKeyFetchLatency, Name: "edgeauth_key_fetch_latency_seconds", Help: "Key set fetch latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for backends without
// native histogram support.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
