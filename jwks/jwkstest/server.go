// Package jwkstest provides an in-process key set endpoint for tests and the
// load generator.
package jwkstest

import (
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/MrEthical07/edgeAuth/jwks"
)

// Server serves <URL>/.well-known/jwks.json from an editable key list and
// counts every request it receives.
type Server struct {
	srv  *httptest.Server
	hits atomic.Int64

	mu     sync.Mutex
	keys   []jose.JSONWebKey
	status int
	body   []byte
	delay  time.Duration
}

// NewServer starts a Server. Call Close when done.
func NewServer() *Server {
	s := &Server{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc(jwks.WellKnownPath, s.serveKeySet)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL is the provider endpoint; pass it wherever an issuer endpoint is expected.
func (s *Server) URL() string { return s.srv.URL }

// Client returns an HTTP client configured for the server.
func (s *Server) Client() *http.Client { return s.srv.Client() }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Hits returns how many key set requests have been served.
func (s *Server) Hits() int64 { return s.hits.Load() }

// AddRSAKey publishes pub under kid.
func (s *Server) AddRSAKey(kid string, pub *rsa.PublicKey) {
	s.AddKey(jose.JSONWebKey{Key: pub, KeyID: kid, Algorithm: "RS256", Use: "sig"})
}

// AddKey publishes an arbitrary JSON web key.
func (s *Server) AddKey(k jose.JSONWebKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, k)
}

// SetStatus forces every response to use code. Non-2xx codes send an empty
// JSON object.
func (s *Server) SetStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// SetBody replaces the generated key set with raw bytes. Pass nil to restore
// the generated document.
func (s *Server) SetBody(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = raw
}

// SetDelay holds every response for d before writing it.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) serveKeySet(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	status, body, delay := s.status, s.body, s.delay
	set := jose.JSONWebKeySet{Keys: append([]jose.JSONWebKey(nil), s.keys...)}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status < 200 || status > 299 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{}"))
		return
	}
	if body != nil {
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	if set.Keys == nil {
		set.Keys = []jose.JSONWebKey{}
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(set)
}
