package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/MrEthical07/edgeAuth/autherr"
)

const (
	segmentSeparator = "."
	segmentCount     = 3

	opDecode = "decode token"
)

// RawSegments holds the token's three segments exactly as they appeared on
// the wire, before base64url decoding.
type RawSegments struct {
	Header    string
	Payload   string
	Signature string
}

// SigningInput returns the bytes covered by the signature: header "." payload.
func (r RawSegments) SigningInput() string {
	return r.Header + segmentSeparator + r.Payload
}

// Header is the subset of the JOSE header used during verification.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// Claims is the decoded payload object. Numeric values are float64, as
// produced by encoding/json.
type Claims map[string]any

// DecodedToken is the structural decoding of a compact token. It is created
// once per call to Decode and never modified afterwards.
type DecodedToken struct {
	Raw RawSegments

	// HeaderJSON and PayloadJSON are the base64url-decoded bytes of the first
	// two segments. Use Header and Claims for their parsed form.
	HeaderJSON  []byte
	PayloadJSON []byte

	// Signature is the base64url-decoded third segment. It is never parsed.
	Signature []byte
}

// Decode splits token into header, payload and signature and base64url-decodes
// each part. It fails with an autherr KindMalformedToken error unless the
// token splits on "." into exactly three non-empty segments that are valid
// base64url.
//
// Every separator delimits a segment, so "a.b." has three segments and fails
// on the empty third one, while "a.b" has two.
//
// Decode performs no I/O and its result depends only on token.
func Decode(token string) (*DecodedToken, error) {
	parts := strings.Split(token, segmentSeparator)
	if len(parts) != segmentCount {
		return nil, autherr.Malformed(opDecode, autherr.ReasonSegmentCount, len(parts), -1, nil)
	}
	for i, p := range parts {
		if len(p) == 0 {
			return nil, autherr.Malformed(opDecode, autherr.ReasonEmptySegment, len(parts), i, nil)
		}
	}

	decoded := make([][]byte, segmentCount)
	for i, p := range parts {
		b, err := decodeSegment(p)
		if err != nil {
			return nil, autherr.Malformed(opDecode, autherr.ReasonEncoding, len(parts), i, err)
		}
		decoded[i] = b
	}

	return &DecodedToken{
		Raw: RawSegments{
			Header:    parts[0],
			Payload:   parts[1],
			Signature: parts[2],
		},
		HeaderJSON:  decoded[0],
		PayloadJSON: decoded[1],
		Signature:   decoded[2],
	}, nil
}

// Header parses the header segment as a JSON object.
func (d *DecodedToken) Header() (Header, error) {
	var h Header
	if err := json.Unmarshal(d.HeaderJSON, &h); err != nil {
		return Header{}, autherr.Malformed("parse header", autherr.ReasonHeaderJSON, segmentCount, 0, err)
	}
	return h, nil
}

// Claims parses the payload segment as a JSON object.
func (d *DecodedToken) Claims() (Claims, error) {
	var c Claims
	if err := json.Unmarshal(d.PayloadJSON, &c); err != nil {
		return nil, autherr.Malformed("parse claims", autherr.ReasonPayloadJSON, segmentCount, 1, err)
	}
	if c == nil {
		// "null" is valid JSON but not an object.
		return nil, autherr.Malformed("parse claims", autherr.ReasonPayloadJSON, segmentCount, 1, nil)
	}
	return c, nil
}

// decodeSegment accepts base64url with or without trailing padding.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
