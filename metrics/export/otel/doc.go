// Package otel binds edgeAuth metrics to an OpenTelemetry Meter.
//
// Counters become Int64ObservableCounter instruments; each histogram bucket
// becomes an Int64ObservableGauge carrying the cumulative count. The caller
// owns the MeterProvider.
package otel
