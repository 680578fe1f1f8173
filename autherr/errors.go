package autherr

import (
	"errors"
	"strconv"
	"strings"
)

// Kind classifies failures that edgeAuth reports as errors. Negative
// validation outcomes are never errors and have no Kind.
type Kind uint8

const (
	// KindUnknown is returned by KindOf for errors outside this taxonomy.
	KindUnknown Kind = iota
	// KindMalformedToken marks a token that failed structural decoding.
	KindMalformedToken
	// KindFetch marks a failed key set retrieval.
	KindFetch
	// KindKeyEncoding marks a key set entry that could not be converted to PEM.
	KindKeyEncoding
)

func (k Kind) String() string {
	switch k {
	case KindMalformedToken:
		return "malformed_token"
	case KindFetch:
		return "fetch_error"
	case KindKeyEncoding:
		return "key_encoding_error"
	default:
		return "unknown"
	}
}

// Reason narrows a Kind to the check that failed.
type Reason string

const (
	ReasonSegmentCount Reason = "segment_count"
	ReasonEmptySegment Reason = "empty_segment"
	ReasonEncoding     Reason = "encoding"
	ReasonHeaderJSON   Reason = "header_json"
	ReasonPayloadJSON  Reason = "payload_json"

	ReasonTransport Reason = "transport"
	ReasonStatus    Reason = "status"
	ReasonBody      Reason = "body"

	ReasonMissingKid Reason = "missing_kid"
	ReasonKeyType    Reason = "key_type"
	ReasonKeyFields  Reason = "key_fields"
	ReasonMarshal    Reason = "marshal"
)

var (
	// ErrMalformedToken matches every *Error of KindMalformedToken via errors.Is.
	ErrMalformedToken = errors.New("malformed token")
	// ErrFetch matches every *Error of KindFetch via errors.Is.
	ErrFetch = errors.New("key set fetch failed")
	// ErrKeyEncoding matches every *Error of KindKeyEncoding via errors.Is.
	ErrKeyEncoding = errors.New("key encoding failed")
)

// Error is the structured error carried by every failure in the taxonomy.
// Fields that do not apply to the Kind are left at their zero value, except
// Position which is -1 when no segment is implicated.
type Error struct {
	Kind   Kind
	Op     string
	Reason Reason

	// MalformedToken
	Segments int
	Position int

	// FetchError
	URL        string
	StatusCode int

	// KeyEncodingError
	Kid string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.sentinel().Error())
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Reason))
		b.WriteByte(')')
	}

	switch e.Kind {
	case KindMalformedToken:
		b.WriteString(": segments=")
		b.WriteString(strconv.Itoa(e.Segments))
		if e.Position >= 0 {
			b.WriteString(" position=")
			b.WriteString(strconv.Itoa(e.Position))
		}
	case KindFetch:
		if e.URL != "" {
			b.WriteString(": url=")
			b.WriteString(e.URL)
		}
		if e.StatusCode != 0 {
			b.WriteString(" status=")
			b.WriteString(strconv.Itoa(e.StatusCode))
		}
	case KindKeyEncoding:
		if e.Kid != "" {
			b.WriteString(": kid=")
			b.WriteString(e.Kid)
		}
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindMalformedToken:
		return ErrMalformedToken
	case KindFetch:
		return ErrFetch
	case KindKeyEncoding:
		return ErrKeyEncoding
	default:
		return errUnknown
	}
}

var errUnknown = errors.New("edgeauth error")

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	return kind != KindUnknown && KindOf(err) == kind
}

// Malformed builds a KindMalformedToken error. Pass position -1 when no single
// segment is at fault.
func Malformed(op string, reason Reason, segments, position int, err error) *Error {
	return &Error{Kind: KindMalformedToken, Op: op, Reason: reason, Segments: segments, Position: position, Err: err}
}

// Fetch builds a KindFetch error.
func Fetch(op string, reason Reason, url string, status int, err error) *Error {
	return &Error{Kind: KindFetch, Op: op, Reason: reason, URL: url, StatusCode: status, Position: -1, Err: err}
}

// KeyEncoding builds a KindKeyEncoding error.
func KeyEncoding(op string, reason Reason, kid string, err error) *Error {
	return &Error{Kind: KindKeyEncoding, Op: op, Reason: reason, Kid: kid, Position: -1, Err: err}
}
