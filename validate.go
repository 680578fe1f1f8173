package edgeAuth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/edgeAuth/jwks"
	"github.com/MrEthical07/edgeAuth/jwt"
)

// KeyResolver returns the signing key for kid published under endpoint, or
// nil when the provider does not publish it. *keycache.Cache implements it.
type KeyResolver interface {
	GetKeyForKid(ctx context.Context, endpoint, kid string) (*jwks.SigningKey, error)
}

// Validator checks identity tokens. The zero value is not usable; construct
// with NewValidator.
type Validator struct {
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the logger used for rejection details. Rejections are
// logged at debug level only.
func WithLogger(l *zap.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithMetrics records outcomes and latency into m.
func WithMetrics(m *Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

// WithClock sets the time source used for the exp check.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Validate checks token with a Validator that has no logger or metrics.
func Validate(ctx context.Context, endpoint, audience string, keys KeyResolver, token string) (bool, error) {
	return defaultValidator.Validate(ctx, endpoint, audience, keys, token)
}

// Validate reports whether token is a currently valid identity token issued
// by endpoint for audience.
//
// A token is valid when its kid resolves through keys, its RS256 signature
// verifies, exp lies strictly in the future, iss equals endpoint, aud equals
// audience and token_use is "id". Any failed check yields false, nil.
//
// Tokens that cannot be decoded return an error matching ErrMalformedToken.
// Failures from keys are returned unchanged.
func (v *Validator) Validate(ctx context.Context, endpoint, audience string, keys KeyResolver, token string) (bool, error) {
	start := time.Now()
	ok, err := v.validate(ctx, endpoint, audience, keys, token)
	if v.metrics.LatencyEnabled() {
		v.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch {
	case errors.Is(err, ErrMalformedToken):
		v.metrics.Inc(MetricValidateMalformed)
		v.logger.Debug("token rejected", zap.String("reason", "malformed"), zap.Error(err))
	case err != nil:
		v.metrics.Inc(MetricValidateError)
		v.logger.Warn("token validation failed", zap.Error(err))
	case ok:
		v.metrics.Inc(MetricValidateAccepted)
	default:
		v.metrics.Inc(MetricValidateRejected)
	}
	return ok, err
}

func (v *Validator) validate(ctx context.Context, endpoint, audience string, keys KeyResolver, token string) (bool, error) {
	decoded, err := jwt.Decode(token)
	if err != nil {
		return false, err
	}
	header, err := decoded.Header()
	if err != nil {
		return false, err
	}
	if header.Kid == "" {
		return v.reject(MetricRejectMissingKid, "missing kid"), nil
	}

	key, err := keys.GetKeyForKid(ctx, endpoint, header.Kid)
	if err != nil {
		return false, err
	}
	if key == nil {
		return v.reject(MetricRejectUnknownKid, "unknown kid", zap.String("kid", header.Kid)), nil
	}

	if err := jwt.VerifyRS256(decoded, key.PublicKeyPEM); err != nil {
		if errors.Is(err, jwt.ErrUnsupportedAlgorithm) {
			return v.reject(MetricRejectAlgorithm, "algorithm", zap.String("alg", header.Alg)), nil
		}
		return v.reject(MetricRejectSignature, "signature", zap.String("kid", header.Kid), zap.Error(err)), nil
	}

	claims, err := decoded.Claims()
	if err != nil {
		return false, err
	}
	if id, reason := checkClaims(claims, v.now(), endpoint, audience); reason != "" {
		return v.reject(id, reason), nil
	}
	return true, nil
}

func (v *Validator) reject(id MetricID, reason string, fields ...zap.Field) bool {
	v.metrics.Inc(id)
	if ce := v.logger.Check(zap.DebugLevel, "token rejected"); ce != nil {
		ce.Write(append(fields, zap.String("reason", reason))...)
	}
	return false
}
