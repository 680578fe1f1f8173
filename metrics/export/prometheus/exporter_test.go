package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	edgeAuth "github.com/MrEthical07/edgeAuth"
)

type fakeSource struct {
	snapshot edgeAuth.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() edgeAuth.MetricsSnapshot { return f.snapshot }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	m := edgeAuth.NewMetrics(edgeAuth.MetricsConfig{Enabled: false})
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewPrometheusExporter(m))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 0 {
		t.Fatalf("expected no families for disabled metrics, got %d", len(families))
	}
}

func TestCollectCountersAndHistograms(t *testing.T) {
	exp := NewPrometheusExporter(fakeSource{
		snapshot: edgeAuth.MetricsSnapshot{
			Counters: map[edgeAuth.MetricID]uint64{
				edgeAuth.MetricValidateAccepted: 7,
			},
			Histograms: map[edgeAuth.MetricID][]uint64{
				edgeAuth.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})
	reg := prometheus.NewRegistry()
	reg.MustRegister(exp)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
		switch f.GetName() {
		case "edgeauth_validate_accepted_total":
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 7 {
				t.Fatalf("expected 7 accepted, got %v", got)
			}
		case "edgeauth_validate_latency_seconds":
			h := f.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 36 {
				t.Fatalf("expected 36 samples, got %d", h.GetSampleCount())
			}
			if got := h.GetBucket()[0].GetCumulativeCount(); got != 1 {
				t.Fatalf("expected first bucket 1, got %d", got)
			}
		}
	}
	if !byName["edgeauth_validate_accepted_total"] || !byName["edgeauth_validate_latency_seconds"] {
		t.Fatalf("missing families: %v", byName)
	}
	if byName["edgeauth_key_fetch_latency_seconds"] {
		t.Fatal("histograms absent from the snapshot must not be emitted")
	}
}

func TestHandlerServesLiveMetrics(t *testing.T) {
	m := edgeAuth.NewMetrics(edgeAuth.MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(edgeAuth.MetricKeyCacheHit)
	m.Observe(edgeAuth.MetricKeyFetchLatency, 20*time.Millisecond)

	srv := httptest.NewServer(NewPrometheusExporter(m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	if !strings.Contains(out, "edgeauth_keycache_hit_total 1") {
		t.Fatalf("expected keycache hit counter, got:\n%s", out)
	}
	if !strings.Contains(out, `edgeauth_key_fetch_latency_seconds_bucket{le="0.025"} 1`) {
		t.Fatalf("expected fetch latency bucket, got:\n%s", out)
	}
}
