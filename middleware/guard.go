package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	edgeAuth "github.com/MrEthical07/edgeAuth"
	"github.com/MrEthical07/edgeAuth/jwt"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims of the token accepted by Guard.
func ClaimsFromContext(ctx context.Context) (jwt.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(jwt.Claims)
	return c, ok
}

// Guard rejects requests whose bearer token is not a valid identity token for
// endpoint and audience.
//
// Missing, malformed and rejected tokens get 401. Key set fetch, key encoding
// and cache store failures get 503 so clients can retry.
func Guard(v *edgeAuth.Validator, endpoint, audience string, keys edgeAuth.KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil || keys == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			valid, err := v.Validate(r.Context(), endpoint, audience, keys, token)
			switch {
			case err != nil && !errors.Is(err, edgeAuth.ErrMalformedToken):
				http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
				return
			case err != nil || !valid:
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if d, err := jwt.Decode(token); err == nil {
				if claims, err := d.Claims(); err == nil {
					ctx = context.WithValue(ctx, claimsContextKey{}, claims)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
