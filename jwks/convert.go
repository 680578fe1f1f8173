package jwks

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/MrEthical07/edgeAuth/autherr"
)

const opConvert = "convert key"

// SigningKey is one provider signing key, identified by kid and carried as a
// PEM "PUBLIC KEY" block.
type SigningKey struct {
	Kid          string `json:"kid"`
	PublicKeyPEM string `json:"pem"`
}

// rawKey is the subset of a key set entry used for conversion. Everything else
// (alg, use, x5c, ...) is ignored.
type rawKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// ConvertKey turns a single raw key set entry into a SigningKey.
func ConvertKey(entry json.RawMessage) (SigningKey, error) {
	var rk rawKey
	if err := json.Unmarshal(entry, &rk); err != nil {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonKeyFields, "", err)
	}
	if rk.Kid == "" {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonMissingKid, "", nil)
	}
	if rk.Kty != "RSA" {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonKeyType, rk.Kid, fmt.Errorf("kty %q", rk.Kty))
	}
	if rk.N == "" || rk.E == "" {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonKeyFields, rk.Kid, errors.New("missing modulus or exponent"))
	}

	// Re-encode only the fields we trust so unrelated members cannot make
	// go-jose reject an otherwise usable key.
	minimal, err := json.Marshal(rk)
	if err != nil {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonMarshal, rk.Kid, err)
	}
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(minimal); err != nil {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonKeyFields, rk.Kid, err)
	}
	pub, ok := jwk.Key.(*rsa.PublicKey)
	if !ok {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonKeyType, rk.Kid, fmt.Errorf("decoded %T", jwk.Key))
	}

	pemText, err := EncodePublicKeyPEM(pub)
	if err != nil {
		return SigningKey{}, autherr.KeyEncoding(opConvert, autherr.ReasonMarshal, rk.Kid, err)
	}
	return SigningKey{Kid: rk.Kid, PublicKeyPEM: pemText}, nil
}

// EncodePublicKeyPEM encodes pub as a PKIX (SPKI) "PUBLIC KEY" PEM block.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	if pub == nil || pub.N == nil {
		return "", errors.New("nil rsa public key")
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
