package edgeAuth

import (
	"github.com/MrEthical07/edgeAuth/autherr"
	"github.com/MrEthical07/edgeAuth/keycache"
)

// Error kinds re-exported from autherr so callers of Validate need a single
// import to classify failures.
const (
	KindMalformedToken = autherr.KindMalformedToken
	KindFetch          = autherr.KindFetch
	KindKeyEncoding    = autherr.KindKeyEncoding
)

var (
	// ErrMalformedToken matches tokens that failed structural decoding.
	ErrMalformedToken = autherr.ErrMalformedToken
	// ErrFetch matches key set retrieval failures.
	ErrFetch = autherr.ErrFetch
	// ErrKeyEncoding matches key set entries that could not be converted.
	ErrKeyEncoding = autherr.ErrKeyEncoding
	// ErrStoreUnavailable matches key cache store failures.
	ErrStoreUnavailable = keycache.ErrStoreUnavailable
)

// ErrorKind returns the taxonomy kind of err, or autherr.KindUnknown.
func ErrorKind(err error) autherr.Kind {
	return autherr.KindOf(err)
}
