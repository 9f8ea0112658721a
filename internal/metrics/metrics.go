// Package metrics exposes prometheus counters for the automation engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "homeauto_"

var (
	readingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "readings_ingested_total",
		Help: "Telemetry readings accepted into the cache",
	})
	readingsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "readings_dropped_total",
		Help: "Telemetry payloads discarded by reason",
	}, []string{"reason"})
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "decisions_total",
		Help: "Decisions produced by evaluation source",
	}, []string{"source"})
	dispatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "dispatches_total",
		Help: "Commands successfully published",
	})
	suppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "dispatches_suppressed_total",
		Help: "Decisions suppressed because the device already held the target state",
	})
	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "publish_failures_total",
		Help: "Command publishes dropped after exhausting retries",
	})
	auditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "audit_write_failures_total",
		Help: "Audit entries that could not be persisted",
	})
)

func IncReadingIngested()             { readingsIngested.Inc() }
func IncReadingDropped(reason string) { readingsDropped.WithLabelValues(reason).Inc() }
func IncDecision(source string)       { decisionsTotal.WithLabelValues(source).Inc() }
func IncDispatched()                  { dispatchesTotal.Inc() }
func IncSuppressed()                  { suppressedTotal.Inc() }
func IncPublishFailure()              { publishFailures.Inc() }
func IncAuditFailure()                { auditFailures.Inc() }

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
