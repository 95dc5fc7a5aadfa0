// Package metrics exposes the scheduling core's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheFallbacks counts reads answered from the local cache because
	// the central database was unreachable.
	CacheFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "router",
		Name:      "cache_fallbacks_total",
		Help:      "Reads served from the local cache after a remote failure.",
	})

	// WriteThroughFailures counts cache write-through attempts that wrote
	// fewer records than requested.
	WriteThroughFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "cache",
		Name:      "write_through_failures_total",
		Help:      "Best-effort cache write-throughs that did not complete.",
	})

	// RefetchesTriggered counts debounced refetches of the visible window.
	RefetchesTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "grid",
		Name:      "refetches_triggered_total",
		Help:      "Visible-window refetches triggered by commits or change events.",
	})

	// ChangeEventsReceived counts raw change notifications before
	// debouncing collapses them.
	ChangeEventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agenda",
		Subsystem: "realtime",
		Name:      "change_events_received_total",
		Help:      "Change-notification events received from the broker.",
	})
)
