// Package prometheus exposes edgeAuth metrics as a prometheus.Collector.
//
// Counters are published as edgeauth_*_total and the two latency histograms
// as edgeauth_*_seconds. [PrometheusExporter.Handler] serves a private
// registry; callers that already run a registry can register the exporter
// directly instead.
package prometheus
