// Package selftest serves an HTTP endpoint that exercises the full
// verification path against the live provider and reports each step.
package selftest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	edgeAuth "github.com/MrEthical07/edgeAuth"
	"github.com/MrEthical07/edgeAuth/autherr"
	"github.com/MrEthical07/edgeAuth/jwt"
	"github.com/MrEthical07/edgeAuth/keycache"
)

const (
	// ParamValidToken carries a currently valid identity token.
	ParamValidToken = "valid_jwt"
	// ParamExpiredToken optionally carries an expired token that must be rejected.
	ParamExpiredToken = "expired_jwt"
)

// Env holds everything a run needs. Nothing is read from process globals.
type Env struct {
	Endpoint  string
	Audience  string
	Cache     *keycache.Cache
	Fetcher   keycache.KeySetFetcher
	Validator *edgeAuth.Validator
	Logger    *zap.Logger
}

// Result is the outcome of one named check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Report is the JSON body written by Handler.
type Report struct {
	RunID  string   `json:"runId"`
	Passed bool     `json:"passed"`
	Tests  []Result `json:"tests"`
}

type check struct {
	name string
	run  func(ctx context.Context) error
}

// Handler runs every check in order on each request. It responds 200 when all
// pass and 500 otherwise; a failing check never stops later ones.
func Handler(env Env) http.Handler {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := env.Validator
	if validator == nil {
		validator = edgeAuth.NewValidator()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		report := Run(r.Context(), env, validator, q.Get(ParamValidToken), q.Get(ParamExpiredToken))

		for _, res := range report.Tests {
			if res.Passed {
				logger.Info("self-test passed", zap.String("runId", report.RunID), zap.String("test", res.Name))
			} else {
				logger.Warn("self-test failed", zap.String("runId", report.RunID), zap.String("test", res.Name), zap.String("message", res.Message))
			}
		}

		status := http.StatusOK
		if !report.Passed {
			status = http.StatusInternalServerError
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	})
}

// Run executes the checks and returns the report. expiredToken may be empty,
// in which case the expired-token check is skipped.
func Run(ctx context.Context, env Env, validator *edgeAuth.Validator, validToken, expiredToken string) Report {
	checks := []check{
		{"Fetch key set", func(ctx context.Context) error {
			if env.Fetcher == nil {
				return errors.New("no fetcher configured")
			}
			keys, err := env.Fetcher.FetchKeySet(ctx, env.Endpoint)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return errors.New("key set is empty")
			}
			return nil
		}},
		{"Decode valid token", func(context.Context) error {
			if validToken == "" {
				return fmt.Errorf("query parameter %q is required", ParamValidToken)
			}
			d, err := jwt.Decode(validToken)
			if err != nil {
				return err
			}
			_, err = d.Header()
			return err
		}},
		{"Decode token with empty last section", func(context.Context) error {
			// Keep the final separator but drop the signature.
			return expectMalformed(truncate(validToken, true), func(e *autherr.Error) bool {
				return e.Reason == autherr.ReasonEmptySegment && e.Position == 2
			})
		}},
		{"Decode token with one separator", func(context.Context) error {
			return expectMalformed(truncate(validToken, false), func(e *autherr.Error) bool {
				return e.Reason == autherr.ReasonSegmentCount && e.Segments == 2
			})
		}},
		{"Find key for valid kid", func(ctx context.Context) error {
			if env.Cache == nil {
				return errors.New("no key cache configured")
			}
			d, err := jwt.Decode(validToken)
			if err != nil {
				return err
			}
			h, err := d.Header()
			if err != nil {
				return err
			}
			key, err := env.Cache.GetKeyForKid(ctx, env.Endpoint, h.Kid)
			if err != nil {
				return err
			}
			if key == nil {
				return fmt.Errorf("no key published for kid %q", h.Kid)
			}
			return nil
		}},
		{"Validate valid token", func(ctx context.Context) error {
			return expectVerdict(ctx, env, validator, validToken, true)
		}},
	}
	if expiredToken != "" {
		checks = append(checks, check{"Validate expired token", func(ctx context.Context) error {
			return expectVerdict(ctx, env, validator, expiredToken, false)
		}})
	}

	report := Report{RunID: uuid.NewString(), Passed: true, Tests: make([]Result, 0, len(checks))}
	for _, c := range checks {
		res := Result{Name: c.name, Passed: true}
		if err := c.run(ctx); err != nil {
			res.Passed = false
			res.Message = err.Error()
			report.Passed = false
		}
		report.Tests = append(report.Tests, res)
	}
	return report
}

func truncate(token string, keepSeparator bool) string {
	i := strings.LastIndex(token, ".")
	if i < 0 {
		return token
	}
	if keepSeparator {
		return token[:i+1]
	}
	return token[:i]
}

func expectMalformed(token string, match func(*autherr.Error) bool) error {
	_, err := jwt.Decode(token)
	if err == nil {
		return errors.New("decode succeeded, expected malformed token")
	}
	var e *autherr.Error
	if !errors.As(err, &e) || e.Kind != autherr.KindMalformedToken {
		return fmt.Errorf("expected malformed token, got %v", err)
	}
	if !match(e) {
		return fmt.Errorf("unexpected failure detail: %v", err)
	}
	return nil
}

func expectVerdict(ctx context.Context, env Env, validator *edgeAuth.Validator, token string, want bool) error {
	if env.Cache == nil {
		return errors.New("no key cache configured")
	}
	ok, err := validator.Validate(ctx, env.Endpoint, env.Audience, env.Cache, token)
	if err != nil {
		return err
	}
	if ok != want {
		return fmt.Errorf("validate returned %v, want %v", ok, want)
	}
	return nil
}
