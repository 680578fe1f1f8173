package edgeAuth

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/MrEthical07/edgeAuth/keycache"
)

// Config is the process-level configuration consumed by cmd/edgeauth. Library
// callers may ignore it and wire components directly.
type Config struct {
	Provider ProviderConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig names the identity provider. Endpoint is both the key set
// base URL and the expected iss claim.
type ProviderConfig struct {
	Endpoint    string        `env:"EDGEAUTH_PROVIDER_ENDPOINT"`
	Audience    string        `env:"EDGEAUTH_PROVIDER_AUDIENCE"`
	HTTPTimeout time.Duration `env:"EDGEAUTH_PROVIDER_HTTP_TIMEOUT,default=10s"`
}

/*
====================================
CACHE CONFIG
====================================
*/

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// CacheConfig selects the key cache store and its lifetimes.
type CacheConfig struct {
	Driver    string `env:"EDGEAUTH_CACHE_DRIVER,default=memory"`
	RedisAddr string `env:"EDGEAUTH_REDIS_ADDR,default=localhost:6379"`
	RedisDB   int    `env:"EDGEAUTH_REDIS_DB,default=0"`

	KeyPrefix string        `env:"EDGEAUTH_CACHE_KEY_PREFIX,default=edgeauth.jwt.validate.pem."`
	KeyTTL    time.Duration `env:"EDGEAUTH_CACHE_KEY_TTL,default=336h"`
	LockTTL   time.Duration `env:"EDGEAUTH_CACHE_LOCK_TTL,default=62s"`

	// PropagationDelay only applies to the memory driver.
	PropagationDelay time.Duration `env:"EDGEAUTH_CACHE_PROPAGATION_DELAY,default=0s"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process metrics collection.
type MetricsConfig struct {
	Enabled                 bool `env:"EDGEAUTH_METRICS_ENABLED,default=true"`
	EnableLatencyHistograms bool `env:"EDGEAUTH_METRICS_LATENCY,default=true"`
}

/*
====================================
LOG / HTTP CONFIG
====================================
*/

// LogConfig selects the zap preset ("dev" or "prod") and minimum level.
type LogConfig struct {
	Env   string `env:"EDGEAUTH_LOG_ENV,default=prod"`
	Level string `env:"EDGEAUTH_LOG_LEVEL,default=info"`
}

type HTTPConfig struct {
	Addr string `env:"EDGEAUTH_HTTP_ADDR,default=:8080"`
}

// DefaultConfig returns a Config with every default applied. Provider
// Endpoint and Audience are left empty.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			HTTPTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Driver:    CacheDriverMemory,
			RedisAddr: "localhost:6379",
			KeyPrefix: keycache.DefaultKeyPrefix,
			KeyTTL:    keycache.DefaultKeyTTL,
			LockTTL:   keycache.DefaultLockTTL,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Env:   "prod",
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig reads optional dotenv files, then decodes the environment over
// the defaults and validates the result.
func LoadConfig(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for values the components cannot run with.
func (c *Config) Validate() error {
	// Provider
	if strings.TrimSpace(c.Provider.Endpoint) == "" {
		return errors.New("Provider Endpoint must be set")
	}
	u, err := url.Parse(c.Provider.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Provider Endpoint must be an absolute URL")
	}
	if strings.HasSuffix(c.Provider.Endpoint, "/") {
		return errors.New("Provider Endpoint must not end with '/'")
	}
	if strings.TrimSpace(c.Provider.Audience) == "" {
		return errors.New("Provider Audience must be set")
	}
	if c.Provider.HTTPTimeout <= 0 {
		return errors.New("Provider HTTPTimeout must be > 0")
	}

	// Cache
	switch c.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return errors.New("Cache RedisAddr must be set for the redis driver")
		}
		if c.Cache.PropagationDelay != 0 {
			return errors.New("Cache PropagationDelay is only supported by the memory driver")
		}
	default:
		return fmt.Errorf("unsupported Cache Driver %q", c.Cache.Driver)
	}
	if c.Cache.RedisDB < 0 {
		return errors.New("Cache RedisDB must be >= 0")
	}
	if c.Cache.KeyPrefix == "" {
		return errors.New("Cache KeyPrefix must be set")
	}
	if c.Cache.KeyTTL <= 0 {
		return errors.New("Cache KeyTTL must be > 0")
	}
	if c.Cache.LockTTL <= 0 {
		return errors.New("Cache LockTTL must be > 0")
	}
	if c.Cache.LockTTL >= c.Cache.KeyTTL {
		return errors.New("Cache LockTTL must be shorter than KeyTTL")
	}
	if c.Cache.PropagationDelay < 0 {
		return errors.New("Cache PropagationDelay must be >= 0")
	}

	// Log
	if c.Log.Env != "dev" && c.Log.Env != "prod" {
		return fmt.Errorf("unsupported Log Env %q", c.Log.Env)
	}

	return nil
}
