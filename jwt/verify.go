package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AlgRS256 is the only signature algorithm accepted for identity tokens.
const AlgRS256 = "RS256"

var (
	// ErrUnsupportedAlgorithm is returned when the header names an algorithm other than RS256.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrInvalidPublicKey is returned when the PEM text does not hold an RSA public key.
	ErrInvalidPublicKey = errors.New("invalid rsa public key")
	// ErrSignatureInvalid is returned when the signature does not match the signing input.
	ErrSignatureInvalid = errors.New("signature invalid")
)

// VerifyRS256 checks d's signature over its raw header and payload segments
// against the PEM-encoded RSA public key. The header alg must be RS256.
//
// All returned errors describe a token that must be rejected; none of them
// indicate an infrastructure fault.
func VerifyRS256(d *DecodedToken, publicKeyPEM string) error {
	h, err := d.Header()
	if err != nil {
		return err
	}
	if h.Alg != AlgRS256 {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, h.Alg)
	}

	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	if err := jwt.SigningMethodRS256.Verify(d.Raw.SigningInput(), d.Signature, pub); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}
