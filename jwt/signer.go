package jwt

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenUseID is the token_use claim carried by identity tokens.
const TokenUseID = "id"

// SignerConfig configures a Signer.
//
// Exactly one of PrivateKey or PrivateKeyPEM must be set.
type SignerConfig struct {
	PrivateKey    *rsa.PrivateKey
	PrivateKeyPEM []byte
	KeyID         string
	Issuer        string
	Audience      string
	TTL           time.Duration
	TokenUse      string
	Now           func() time.Time
}

// Signer issues RS256 identity tokens shaped like the provider's. It backs
// local test fixtures and the load generator; production tokens are always
// minted by the identity provider.
type Signer struct {
	config SignerConfig
	key    *rsa.PrivateKey
}

// NewSigner validates cfg and returns a Signer.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if cfg.KeyID == "" {
		return nil, errors.New("signer requires key id")
	}
	if cfg.TokenUse == "" {
		cfg.TokenUse = TokenUseID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	key := cfg.PrivateKey
	switch {
	case key != nil && len(cfg.PrivateKeyPEM) > 0:
		return nil, errors.New("set either PrivateKey or PrivateKeyPEM, not both")
	case key == nil && len(cfg.PrivateKeyPEM) == 0:
		return nil, errors.New("rs256 requires private key")
	case key == nil:
		parsed, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKeyPEM)
		if err != nil {
			return nil, errors.New("invalid rsa private key")
		}
		key = parsed
	}

	return &Signer{config: cfg, key: key}, nil
}

// KeyID returns the kid placed in every token header.
func (s *Signer) KeyID() string { return s.config.KeyID }

// PublicKey returns the public half of the signing key.
func (s *Signer) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

// IdentityClaims returns the claim set Issue would sign for subject. Callers
// may edit the map before passing it to Sign.
func (s *Signer) IdentityClaims(subject string) jwt.MapClaims {
	now := s.config.Now()
	claims := jwt.MapClaims{
		"sub":       subject,
		"token_use": s.config.TokenUse,
		"auth_time": now.Unix(),
		"iat":       now.Unix(),
		"exp":       now.Add(s.config.TTL).Unix(),
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}
	if s.config.Audience != "" {
		// Identity tokens carry aud as a single string.
		claims["aud"] = s.config.Audience
	}
	return claims
}

// Issue signs the default identity claims for subject.
func (s *Signer) Issue(subject string) (string, error) {
	return s.Sign(s.IdentityClaims(subject))
}

// Sign signs claims with RS256 under the configured kid.
func (s *Signer) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.config.KeyID
	return token.SignedString(s.key)
}
