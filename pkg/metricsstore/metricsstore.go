// Package metricsstore implements a central store for all metrics produced by the policy controller.
package metricsstore

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsRootNamespace = "fsm_policy"
)

// MetricsStore is a store that holds all the metrics of the policy controller
type MetricsStore struct {
	/*
	 * Index metrics
	 */
	// IndexMutationCounter counts the resources applied to or deleted from the index
	IndexMutationCounter *prometheus.CounterVec

	// DerivationCounter counts the inbound server derivations performed by the index
	DerivationCounter prometheus.Counter

	// PublicationCounter counts the derived inbound servers published to subscribers
	PublicationCounter prometheus.Counter

	// SubscriptionGauge is the number of endpoints that have a subscription cell
	SubscriptionGauge prometheus.Gauge

	// ConversionErrorCounter counts the route resources that failed conversion
	ConversionErrorCounter *prometheus.CounterVec

	/*
	 * Status metrics
	 */
	// StatusPatchCounter counts route status patches by result
	StatusPatchCounter *prometheus.CounterVec

	// StatusQueueDepth is the number of route keys waiting for status reconciliation
	StatusQueueDepth prometheus.Gauge

	/*
	 * Broker metrics
	 */
	// RouteStatusEventCounter counts the route status announcements published by the broker
	RouteStatusEventCounter prometheus.Counter

	// RouteStatusKeyCounter counts the route keys carried by the route status announcements
	RouteStatusKeyCounter prometheus.Counter

	/*
	 * Error code metrics
	 */
	// ErrCodeCounter is the metric counter for error codes
	ErrCodeCounter *prometheus.CounterVec

	registry *prometheus.Registry
	once     sync.Once
}

// DefaultMetricsStore is the default metrics store
var DefaultMetricsStore = newMetricsStore()

func newMetricsStore() *MetricsStore {
	ms := &MetricsStore{registry: prometheus.NewRegistry()}

	ms.IndexMutationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "index",
			Name:      "mutations_total",
			Help:      "Counter of resources applied to or deleted from the policy index",
		},
		[]string{"kind", "op"},
	)

	ms.DerivationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "index",
		Name:      "derivations_total",
		Help:      "Counter of inbound server derivations",
	})

	ms.PublicationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "index",
		Name:      "publications_total",
		Help:      "Counter of inbound server updates published to subscribers",
	})

	ms.SubscriptionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "index",
		Name:      "endpoints",
		Help:      "Number of pod ports with an inbound server subscription cell",
	})

	ms.ConversionErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "routes",
			Name:      "conversion_errors_total",
			Help:      "Counter of route resources rejected during conversion",
		},
		[]string{"kind"},
	)

	ms.StatusPatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsRootNamespace,
			Subsystem: "status",
			Name:      "patches_total",
			Help:      "Counter of route status patches",
		},
		[]string{"result"},
	)

	ms.StatusQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "status",
		Name:      "queue_depth",
		Help:      "Number of route keys waiting for status reconciliation",
	})

	ms.RouteStatusEventCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "broker",
		Name:      "route_status_events_total",
		Help:      "Counter of route status announcements published",
	})

	ms.RouteStatusKeyCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsRootNamespace,
		Subsystem: "broker",
		Name:      "route_status_keys_total",
		Help:      "Counter of route keys dispatched in route status announcements",
	})

	ms.ErrCodeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsRootNamespace,
			Name:      "error_err_code_count",
			Help:      "Number of errors encountered, labelled by error code",
		},
		[]string{"err_code"},
	)

	return ms
}

// Start registers the default collectors with the registry
func (ms *MetricsStore) Start() {
	ms.once.Do(func() {
		ms.registry.MustRegister(
			ms.IndexMutationCounter,
			ms.DerivationCounter,
			ms.PublicationCounter,
			ms.SubscriptionGauge,
			ms.ConversionErrorCounter,
			ms.StatusPatchCounter,
			ms.StatusQueueDepth,
			ms.RouteStatusEventCounter,
			ms.RouteStatusKeyCounter,
			ms.ErrCodeCounter,
		)
	})
}

// Handler return the registry
func (ms *MetricsStore) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		ms.registry,
		promhttp.HandlerFor(ms.registry, promhttp.HandlerOpts{}),
	)
}
