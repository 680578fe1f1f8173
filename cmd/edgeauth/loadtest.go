package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	edgeAuth "github.com/MrEthical07/edgeAuth"
	"github.com/MrEthical07/edgeAuth/jwks"
	"github.com/MrEthical07/edgeAuth/jwks/jwkstest"
	"github.com/MrEthical07/edgeAuth/jwt"
	"github.com/MrEthical07/edgeAuth/keycache"
	redisstore "github.com/MrEthical07/edgeAuth/store/redis"
)

type loadtestOptions struct {
	cold        int
	warm        int
	concurrency int
	redisAddr   string
	fetchDelay  time.Duration
}

func newLoadtestCmd() *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure cold and warm validation against a local key set endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cold <= 0 || opts.warm <= 0 || opts.concurrency <= 0 {
				return errors.New("cold, warm, and concurrency must be > 0")
			}
			if opts.redisAddr == "" {
				opts.redisAddr = os.Getenv("REDIS_ADDR")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.cold, "cold", 256, "concurrent validations against an empty key cache")
	f.IntVar(&opts.warm, "warm", 100000, "validations once the key is cached")
	f.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers in the warm phase")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.DurationVar(&opts.fetchDelay, "fetch-delay", 50*time.Millisecond, "artificial latency of the key set endpoint")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, opts loadtestOptions) error {
	var (
		client  redis.UniversalClient
		cleanup func()
	)
	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Fprintf(out, "using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	defer cleanup()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	kid := uuid.NewString()

	provider := jwkstest.NewServer()
	defer provider.Close()
	provider.AddRSAKey(kid, &key.PublicKey)
	provider.SetDelay(opts.fetchDelay)

	endpoint := provider.URL()
	const audience = "loadtest-client"
	signer, err := jwt.NewSigner(jwt.SignerConfig{
		PrivateKey: key,
		KeyID:      kid,
		Issuer:     endpoint,
		Audience:   audience,
		TTL:        time.Hour,
	})
	if err != nil {
		return err
	}
	token, err := signer.Issue("loadtest-user")
	if err != nil {
		return err
	}

	metrics := edgeAuth.NewMetrics(edgeAuth.MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	fetcher := jwks.NewFetcher(jwks.WithHTTPClient(provider.Client()))
	// A fresh prefix per run keeps runs against a shared redis independent.
	cache, err := keycache.New(redisstore.NewStore(client, ""), fetcher,
		keycache.WithKeyPrefix("edgeauth.loadtest."+uuid.NewString()+"."),
		keycache.WithObserver(metrics),
	)
	if err != nil {
		return err
	}
	validator := edgeAuth.NewValidator(edgeAuth.WithMetrics(metrics), edgeAuth.WithLogger(zap.NewNop()))

	validate := func(ctx context.Context) error {
		ok, err := validator.Validate(ctx, endpoint, audience, cache, token)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("token rejected")
		}
		return nil
	}

	coldStats := runPhase(ctx, validate, opts.cold, opts.cold)
	coldFetches := provider.Hits()
	warmStats := runPhase(ctx, validate, opts.warm, opts.concurrency)

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "cold", coldStats)
	printStats(out, "warm", warmStats)
	fmt.Fprintf(out, "key set fetches: cold=%d warm=%d\n", coldFetches, provider.Hits()-coldFetches)
	fmt.Fprintf(out, "key cache: hit=%d miss=%d lockAcquired=%d lockContended=%d\n",
		metrics.Value(edgeAuth.MetricKeyCacheHit),
		metrics.Value(edgeAuth.MetricKeyCacheMiss),
		metrics.Value(edgeAuth.MetricKeyCacheLockAcquired),
		metrics.Value(edgeAuth.MetricKeyCacheLockContended),
	)
	return nil
}

// runPhase performs ops validations on concurrency workers. Failures are
// counted, not returned, so a single bad call does not end the phase.
func runPhase(ctx context.Context, validate func(context.Context) error, ops, concurrency int) phaseStats {
	var (
		g         errgroup.Group
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return nil
				}
				t0 := time.Now()
				err := validate(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	_ = g.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
