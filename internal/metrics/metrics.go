// Package metrics registers the Prometheus collectors for the client
// core: credential renewals, request retries, and push-event handling.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the jille client.
var Metrics = struct {
	RenewalsTotal    *prometheus.CounterVec
	RenewalWaiters   prometheus.Counter
	RequestRetries   prometheus.Counter
	SSEEventsTotal   *prometheus.CounterVec
	RefetchesTotal   prometheus.Counter
}{}

var initOnce sync.Once

// Init registers all collectors. Safe to call more than once; only the
// first call registers.
func Init() {
	initOnce.Do(func() {
		Metrics.RenewalsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jille_client_renewals_total",
				Help: "Credential renewal attempts, by outcome.",
			},
			[]string{"outcome"},
		)

		Metrics.RenewalWaiters = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jille_client_renewal_waiters_coalesced_total",
				Help: "Requests that attached to an in-flight renewal instead of starting one.",
			},
		)

		Metrics.RequestRetries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jille_client_request_retries_total",
				Help: "Requests resent after a successful credential renewal.",
			},
		)

		Metrics.SSEEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jille_client_sse_events_total",
				Help: "Push events received, by handling result.",
			},
			[]string{"result"},
		)

		Metrics.RefetchesTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jille_client_refetches_total",
				Help: "Targeted poll re-fetches triggered by push events.",
			},
		)

		prometheus.MustRegister(
			Metrics.RenewalsTotal,
			Metrics.RenewalWaiters,
			Metrics.RequestRetries,
			Metrics.SSEEventsTotal,
			Metrics.RefetchesTotal,
		)
	})
}

// Event handling results for SSEEventsTotal.
const (
	EventApplied   = "applied"
	EventIgnored   = "ignored"
	EventMalformed = "malformed"
	EventStale     = "stale"
)
