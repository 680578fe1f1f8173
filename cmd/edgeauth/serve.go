package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/edgeAuth/metrics/export/prometheus"
	authmw "github.com/MrEthical07/edgeAuth/middleware"
	"github.com/MrEthical07/edgeAuth/selftest"
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the self-test, a guarded sample route and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(*envFiles)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	srv := &http.Server{
		Addr:              rt.cfg.HTTP.Addr,
		Handler:           newRouter(rt),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("endpoint", rt.cfg.Provider.Endpoint))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newRouter(rt *runtime) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", prometheus.NewPrometheusExporter(rt.metrics).Handler())
	r.Method(http.MethodGet, "/selftest", selftest.Handler(selftest.Env{
		Endpoint:  rt.cfg.Provider.Endpoint,
		Audience:  rt.cfg.Provider.Audience,
		Cache:     rt.cache,
		Fetcher:   rt.fetcher,
		Validator: rt.validator,
		Logger:    rt.logger.Named("selftest"),
	}))

	r.Group(func(r chi.Router) {
		r.Use(authmw.Guard(rt.validator, rt.cfg.Provider.Endpoint, rt.cfg.Provider.Audience, rt.cache))
		r.Get("/protected", protected)
	})
	return r
}

func protected(w http.ResponseWriter, r *http.Request) {
	claims, _ := authmw.ClaimsFromContext(r.Context())
	sub, _ := claims["sub"].(string)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"sub": sub})
}
