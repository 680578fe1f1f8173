package jwks_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/edgeAuth/autherr"
	"github.com/MrEthical07/edgeAuth/jwks"
	"github.com/MrEthical07/edgeAuth/jwks/jwkstest"
)

func genRSA(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	return k
}

func TestFetchKeySetConvertsEveryKey(t *testing.T) {
	srv := jwkstest.NewServer()
	defer srv.Close()
	k1, k2 := genRSA(t), genRSA(t)
	srv.AddRSAKey("k1", &k1.PublicKey)
	srv.AddRSAKey("k2", &k2.PublicKey)

	keys, err := jwks.NewFetcher(jwks.WithHTTPClient(srv.Client())).FetchKeySet(context.Background(), srv.URL())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if !strings.HasPrefix(keys["k1"].PublicKeyPEM, "-----BEGIN PUBLIC KEY-----") {
		t.Fatalf("unexpected pem %q", keys["k1"].PublicKeyPEM)
	}

	parsed, err := jwt.ParseRSAPublicKeyFromPEM([]byte(keys["k2"].PublicKeyPEM))
	if err != nil {
		t.Fatalf("parse pem: %v", err)
	}
	if !parsed.Equal(&k2.PublicKey) {
		t.Fatal("pem does not round-trip the published key")
	}
	if srv.Hits() != 1 {
		t.Fatalf("expected one request, got %d", srv.Hits())
	}
}

func TestFetchKeySetEmptyKeys(t *testing.T) {
	srv := jwkstest.NewServer()
	defer srv.Close()

	keys, err := jwks.NewFetcher().FetchKeySet(context.Background(), srv.URL())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty map, got %v", keys)
	}
}

func TestFetchKeySetSendsAcceptHeader(t *testing.T) {
	var accept, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept, path = r.Header.Get("Accept"), r.URL.Path
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer srv.Close()

	if _, err := jwks.NewFetcher().FetchKeySet(context.Background(), srv.URL+"/pool"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if accept != "application/json" {
		t.Fatalf("unexpected accept header %q", accept)
	}
	if path != "/pool/.well-known/jwks.json" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestFetchKeySetFetchErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		reason autherr.Reason
	}{
		{"server error", http.StatusInternalServerError, "", autherr.ReasonStatus},
		{"not found", http.StatusNotFound, "", autherr.ReasonStatus},
		{"html body", http.StatusOK, "<html>nope</html>", autherr.ReasonBody},
		{"missing keys", http.StatusOK, `{"other":[]}`, autherr.ReasonBody},
		{"null keys", http.StatusOK, `{"keys":null}`, autherr.ReasonBody},
	}
	for _, tc := range cases {
		srv := jwkstest.NewServer()
		srv.SetStatus(tc.status)
		if tc.body != "" {
			srv.SetBody([]byte(tc.body))
		}

		_, err := jwks.NewFetcher().FetchKeySet(context.Background(), srv.URL())
		srv.Close()

		if !errors.Is(err, autherr.ErrFetch) {
			t.Fatalf("%s: expected fetch error, got %v", tc.name, err)
		}
		var e *autherr.Error
		errors.As(err, &e)
		if e.Reason != tc.reason {
			t.Fatalf("%s: expected reason %s, got %s", tc.name, tc.reason, e.Reason)
		}
		if tc.reason == autherr.ReasonStatus && e.StatusCode != tc.status {
			t.Fatalf("%s: expected status %d captured, got %d", tc.name, tc.status, e.StatusCode)
		}
	}
}

func TestFetchKeySetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := jwks.NewFetcher().FetchKeySet(context.Background(), endpoint)
	if autherr.KindOf(err) != autherr.KindFetch {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetchKeySetAbortsOnBadEntry(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("gen ec: %v", err)
	}
	good := genRSA(t)

	cases := map[string]func(*jwkstest.Server){
		"non rsa key": func(s *jwkstest.Server) {
			s.AddKey(jose.JSONWebKey{Key: &ec.PublicKey, KeyID: "ec1"})
		},
		"missing kid": func(s *jwkstest.Server) {
			s.SetBody([]byte(`{"keys":[{"kty":"RSA","n":"AQAB","e":"AQAB"}]}`))
		},
		"bad modulus": func(s *jwkstest.Server) {
			s.SetBody([]byte(`{"keys":[{"kid":"k9","kty":"RSA","n":"***","e":"AQAB"}]}`))
		},
		"missing exponent": func(s *jwkstest.Server) {
			s.SetBody([]byte(`{"keys":[{"kid":"k9","kty":"RSA","n":"AQAB"}]}`))
		},
	}
	for name, setup := range cases {
		srv := jwkstest.NewServer()
		srv.AddRSAKey("good", &good.PublicKey)
		setup(srv)

		keys, err := jwks.NewFetcher().FetchKeySet(context.Background(), srv.URL())
		srv.Close()

		if !errors.Is(err, autherr.ErrKeyEncoding) {
			t.Fatalf("%s: expected key encoding error, got %v", name, err)
		}
		if keys != nil {
			t.Fatalf("%s: expected no partial key set, got %v", name, keys)
		}
	}
}

func TestFetchKeySetIgnoresExtraMembers(t *testing.T) {
	srv := jwkstest.NewServer()
	defer srv.Close()
	srv.SetBody([]byte(`{"keys":[{"kid":"k1","kty":"RSA","alg":"RS256","use":"sig","n":"` + modulusOf(t) + `","e":"AQAB","x5t":"zzz"}]}`))

	keys, err := jwks.NewFetcher().FetchKeySet(context.Background(), srv.URL())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := keys["k1"]; !ok {
		t.Fatalf("expected k1 in %v", keys)
	}
}

func modulusOf(t *testing.T) string {
	t.Helper()
	k := genRSA(t)
	b, err := jose.JSONWebKey{Key: &k.PublicKey, KeyID: "x"}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal jwk: %v", err)
	}
	s := string(b)
	i := strings.Index(s, `"n":"`)
	if i < 0 {
		t.Fatalf("no modulus in %s", s)
	}
	rest := s[i+5:]
	return rest[:strings.Index(rest, `"`)]
}
