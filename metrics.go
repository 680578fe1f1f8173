package edgeAuth

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/edgeAuth/keycache"
)

// MetricID identifies a counter or latency histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricValidateAccepted counts tokens that passed every check.
	MetricValidateAccepted MetricID = iota
	// MetricValidateRejected counts tokens rejected with a false verdict.
	MetricValidateRejected
	// MetricValidateMalformed counts tokens that failed structural decoding.
	MetricValidateMalformed
	// MetricValidateError counts validations aborted by a fetch, key encoding or store failure.
	MetricValidateError

	MetricRejectMissingKid
	MetricRejectUnknownKid
	MetricRejectAlgorithm
	MetricRejectSignature
	MetricRejectExpired
	MetricRejectIssuer
	MetricRejectAudience
	MetricRejectTokenUse

	MetricKeyCacheHit
	MetricKeyCacheMiss
	MetricKeyCacheLockAcquired
	MetricKeyCacheLockContended
	MetricKeyCacheStored
	MetricKeyCacheCorruptEntry
	MetricKeyFetch
	MetricKeyFetchError
	MetricKeyKidNotFound

	// MetricValidateLatency is the end-to-end Validate latency histogram.
	MetricValidateLatency
	// MetricKeyFetchLatency is the key set fetch latency histogram.
	MetricKeyFetchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free set of counters and fixed-bucket latency histograms.
// A nil or disabled Metrics accepts every call and records nothing.
//
// Metrics implements [keycache.Observer] so one instance can follow both the
// validator and its key cache.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every metric. Histogram slices
// hold non-cumulative bucket counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

var _ keycache.Observer = (*Metrics)(nil)

// NewMetrics returns Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only histogram metric IDs are
// accepted.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// ObserveKeyCache maps key cache protocol events to counters.
func (m *Metrics) ObserveKeyCache(ev keycache.Event, elapsed time.Duration) {
	switch ev {
	case keycache.EventHit:
		m.Inc(MetricKeyCacheHit)
	case keycache.EventMiss:
		m.Inc(MetricKeyCacheMiss)
	case keycache.EventLockAcquired:
		m.Inc(MetricKeyCacheLockAcquired)
	case keycache.EventLockContended:
		m.Inc(MetricKeyCacheLockContended)
	case keycache.EventStored:
		m.Inc(MetricKeyCacheStored)
	case keycache.EventCorruptEntry:
		m.Inc(MetricKeyCacheCorruptEntry)
	case keycache.EventFetch:
		m.Inc(MetricKeyFetch)
		m.Observe(MetricKeyFetchLatency, elapsed)
	case keycache.EventFetchError:
		m.Inc(MetricKeyFetchError)
		m.Observe(MetricKeyFetchLatency, elapsed)
	case keycache.EventKidNotFound:
		m.Inc(MetricKeyKidNotFound)
	}
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency tracking is on, every
// histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricValidateLatency, MetricKeyFetchLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

// MetricsSnapshot lets *Metrics serve directly as an exporter source.
func (m *Metrics) MetricsSnapshot() MetricsSnapshot {
	return m.Snapshot()
}

func isHistogram(id MetricID) bool {
	return id == MetricValidateLatency || id == MetricKeyFetchLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
