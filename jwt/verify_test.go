package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func publicPEM(t *testing.T, pub *rsa.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func newTestSigner(t *testing.T, key *rsa.PrivateKey) *Signer {
	t.Helper()
	s, err := NewSigner(SignerConfig{
		PrivateKey: key,
		KeyID:      "k1",
		Issuer:     "https://idp.example.com/pool",
		Audience:   "client-1",
		TTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestVerifyRS256AcceptsMatchingKey(t *testing.T) {
	key := newRSAKey(t)
	tok, err := newTestSigner(t, key).Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	d, err := Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := VerifyRS256(d, publicPEM(t, &key.PublicKey)); err != nil {
		t.Fatalf("expected signature to verify: %v", err)
	}
}

func TestVerifyRS256RejectsOtherKey(t *testing.T) {
	tok, err := newTestSigner(t, newRSAKey(t)).Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	d, _ := Decode(tok)

	err = VerifyRS256(d, publicPEM(t, &newRSAKey(t).PublicKey))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyRS256RejectsTamperedPayload(t *testing.T) {
	key := newRSAKey(t)
	tok, err := newTestSigner(t, key).Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	d, _ := Decode(tok)

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin","token_use":"id"}`))
	tampered, err := Decode(d.Raw.Header + "." + forged + "." + d.Raw.Signature)
	if err != nil {
		t.Fatalf("decode tampered: %v", err)
	}
	if err := VerifyRS256(tampered, publicPEM(t, &key.PublicKey)); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tampered payload to fail, got %v", err)
	}
}

func TestVerifyRS256RejectsOtherAlgorithms(t *testing.T) {
	key := newRSAKey(t)
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{"sub": "u1"})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	d, _ := Decode(signed)

	if err := VerifyRS256(d, publicPEM(t, &key.PublicKey)); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestVerifyRS256RejectsGarbagePEM(t *testing.T) {
	tok, _ := newTestSigner(t, newRSAKey(t)).Issue("u1")
	d, _ := Decode(tok)
	if err := VerifyRS256(d, "not a pem"); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}
