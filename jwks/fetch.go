package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/edgeAuth/autherr"
)

const (
	// WellKnownPath is appended verbatim to the provider endpoint.
	WellKnownPath = "/.well-known/jwks.json"

	// DefaultHTTPTimeout bounds a fetch when no client is injected.
	DefaultHTTPTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20

	opFetch = "fetch key set"
)

// Fetcher downloads and converts provider key sets. It is safe for
// concurrent use.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for key set requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher returns a Fetcher with a 10 second HTTP timeout unless a client
// is supplied.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultHTTPTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the key set location for endpoint.
func URL(endpoint string) string {
	return endpoint + WellKnownPath
}

type keySetDocument struct {
	Keys []json.RawMessage `json:"keys"`
}

// FetchKeySet downloads the key set published under endpoint and returns every
// entry converted to PEM, keyed by kid. An empty "keys" array yields an empty
// map.
//
// Transport failures, non-2xx responses and bodies without a "keys" array are
// reported as autherr KindFetch errors. A single unconvertible entry fails the
// whole call with KindKeyEncoding; partial key sets are never returned.
func (f *Fetcher) FetchKeySet(ctx context.Context, endpoint string) (map[string]SigningKey, error) {
	url := URL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, autherr.Fetch(opFetch, autherr.ReasonTransport, url, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("key set request failed", zap.String("url", url), zap.Error(err))
		return nil, autherr.Fetch(opFetch, autherr.ReasonTransport, url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		f.logger.Warn("key set endpoint returned non-success status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, autherr.Fetch(opFetch, autherr.ReasonStatus, url, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, autherr.Fetch(opFetch, autherr.ReasonTransport, url, resp.StatusCode, err)
	}

	var doc keySetDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, autherr.Fetch(opFetch, autherr.ReasonBody, url, resp.StatusCode, err)
	}
	if doc.Keys == nil {
		return nil, autherr.Fetch(opFetch, autherr.ReasonBody, url, resp.StatusCode, errors.New(`missing "keys" array`))
	}

	keys := make(map[string]SigningKey, len(doc.Keys))
	for _, entry := range doc.Keys {
		k, err := ConvertKey(entry)
		if err != nil {
			f.logger.Warn("key set entry rejected", zap.String("url", url), zap.Error(err))
			return nil, err
		}
		keys[k.Kid] = k
	}

	f.logger.Debug("key set fetched",
		zap.String("url", url),
		zap.Int("keys", len(keys)),
		zap.Duration("elapsed", time.Since(start)))
	return keys, nil
}
