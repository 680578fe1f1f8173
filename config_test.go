package edgeAuth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/edgeAuth/keycache"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Provider.Endpoint = "https://idp.example.com/us-east-1_pool"
	cfg.Provider.Audience = "client-123"
	return cfg
}

func TestDefaultConfigMatchesCacheDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cache.KeyTTL != 14*24*time.Hour || cfg.Cache.LockTTL != 62*time.Second {
		t.Fatalf("unexpected ttl defaults %v %v", cfg.Cache.KeyTTL, cfg.Cache.LockTTL)
	}
	if cfg.Cache.KeyPrefix != keycache.DefaultKeyPrefix {
		t.Fatalf("unexpected prefix %q", cfg.Cache.KeyPrefix)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without provider must not validate")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "baseline", mutate: func(c *Config) {}, wantValid: true},
		{name: "relative endpoint", mutate: func(c *Config) { c.Provider.Endpoint = "idp.example.com" }, wantValid: false},
		{name: "trailing slash endpoint", mutate: func(c *Config) { c.Provider.Endpoint += "/" }, wantValid: false},
		{name: "blank audience", mutate: func(c *Config) { c.Provider.Audience = "  " }, wantValid: false},
		{name: "zero http timeout", mutate: func(c *Config) { c.Provider.HTTPTimeout = 0 }, wantValid: false},
		{name: "redis driver", mutate: func(c *Config) { c.Cache.Driver = CacheDriverRedis }, wantValid: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Driver = CacheDriverRedis; c.Cache.RedisAddr = "" }, wantValid: false},
		{name: "redis with delay", mutate: func(c *Config) {
			c.Cache.Driver = CacheDriverRedis
			c.Cache.PropagationDelay = time.Second
		}, wantValid: false},
		{name: "memory with delay", mutate: func(c *Config) { c.Cache.PropagationDelay = time.Second }, wantValid: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Cache.Driver = "kv" }, wantValid: false},
		{name: "empty prefix", mutate: func(c *Config) { c.Cache.KeyPrefix = "" }, wantValid: false},
		{name: "lock outlives key", mutate: func(c *Config) { c.Cache.LockTTL = c.Cache.KeyTTL }, wantValid: false},
		{name: "negative delay", mutate: func(c *Config) { c.Cache.PropagationDelay = -time.Second }, wantValid: false},
		{name: "dev logging", mutate: func(c *Config) { c.Log.Env = "dev" }, wantValid: true},
		{name: "unknown log env", mutate: func(c *Config) { c.Log.Env = "staging" }, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("EDGEAUTH_PROVIDER_ENDPOINT", "https://idp.example.com/pool")
	t.Setenv("EDGEAUTH_PROVIDER_AUDIENCE", "client-9")
	t.Setenv("EDGEAUTH_CACHE_DRIVER", "redis")
	t.Setenv("EDGEAUTH_CACHE_LOCK_TTL", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Provider.Audience != "client-9" || cfg.Cache.Driver != CacheDriverRedis {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Cache.LockTTL != 30*time.Second || cfg.Cache.KeyTTL != keycache.DefaultKeyTTL {
		t.Fatalf("unexpected ttls %v %v", cfg.Cache.LockTTL, cfg.Cache.KeyTTL)
	}
}

func TestLoadConfigFromDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "EDGEAUTH_PROVIDER_ENDPOINT=https://idp.example.com/dotenv\nEDGEAUTH_PROVIDER_AUDIENCE=client-dotenv\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv never overrides variables that are already set, and t.Setenv
	// restores the previous state afterwards.
	t.Setenv("EDGEAUTH_PROVIDER_ENDPOINT", "")
	t.Setenv("EDGEAUTH_PROVIDER_AUDIENCE", "")
	os.Unsetenv("EDGEAUTH_PROVIDER_ENDPOINT")
	os.Unsetenv("EDGEAUTH_PROVIDER_AUDIENCE")

	cfg, err := LoadConfig(filepath.Join(dir, "missing.env"), path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Provider.Endpoint != "https://idp.example.com/dotenv" || cfg.Provider.Audience != "client-dotenv" {
		t.Fatalf("unexpected provider %+v", cfg.Provider)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("EDGEAUTH_PROVIDER_ENDPOINT", "https://idp.example.com/pool")
	t.Setenv("EDGEAUTH_PROVIDER_AUDIENCE", "client-9")
	t.Setenv("EDGEAUTH_CACHE_DRIVER", "dynamo")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected invalid driver to fail")
	}
}
