// Package metrics provides Prometheus metrics for the rally leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rally service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Event producer metrics - the competition's raw inputs
	donationsRecorded prometheus.Counter
	salesRecorded     prometheus.Counter
	photosSubmitted   prometheus.Counter
	photosApproved    prometheus.Counter
	photosRejected    prometheus.Counter
	teamsCreated      prometheus.Counter

	// Snapshot metrics - rebuild cost and cache effectiveness
	snapshotsBuilt        prometheus.Counter
	snapshotCacheHits     prometheus.Counter
	snapshotBuildDuration prometheus.Histogram
	snapshotErrors        prometheus.Counter

	// Broadcast metrics - push path health
	broadcasts     prometheus.Counter
	broadcastDrops prometheus.Counter
	pointEvents    prometheus.Counter
	subscribers    prometheus.Gauge

	// Mutation bus metrics
	busDepth         prometheus.Gauge
	busEnqueueErrors prometheus.Counter

	// Business scale
	teamsTotal prometheus.Gauge
	generation prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rally",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.donationsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "donations_recorded_total",
		Help:      "Total number of donations recorded",
	})

	m.salesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shirt_sales_recorded_total",
		Help:      "Total number of shirt sales recorded",
	})

	m.photosSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "photos_submitted_total",
		Help:      "Total number of photo submissions",
	})

	m.photosApproved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "photos_approved_total",
		Help:      "Total number of photos approved by moderators",
	})

	m.photosRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "photos_rejected_total",
		Help:      "Total number of photos rejected by moderators",
	})

	m.teamsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_created_total",
		Help:      "Total number of teams created",
	})

	m.snapshotsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_built_total",
		Help:      "Total number of leaderboard snapshot rebuilds",
	})

	m.snapshotCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_hits_total",
		Help:      "Total number of snapshot reads served from cache",
	})

	m.snapshotBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_build_duration_milliseconds",
		Help:      "Histogram of snapshot rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_errors_total",
		Help:      "Total number of snapshot rebuilds that failed",
	})

	m.broadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcasts_total",
		Help:      "Total number of snapshot broadcasts to the viewer group",
	})

	m.broadcastDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_drops_total",
		Help:      "Total number of per-subscriber deliveries dropped",
	})

	m.pointEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "point_events_total",
		Help:      "Total number of targeted point-event notifications pushed",
	})

	m.subscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscribers",
		Help:      "Current number of subscribed viewer connections",
	})

	m.busDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_depth",
		Help:      "Current number of pending mutation events on the bus",
	})

	m.busEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_enqueue_errors_total",
		Help:      "Total number of mutation events dropped on bus overflow",
	})

	m.teamsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_total",
		Help:      "Total number of teams tracked in the leaderboard",
	})

	m.generation = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "generation",
		Help:      "Monotonic mutation generation counter",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// GetRegistry returns the custom Prometheus registry used for scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers operating on the global manager.

func RecordDonation()       { globalManager.donationsRecorded.Inc() }
func RecordSale()           { globalManager.salesRecorded.Inc() }
func RecordPhotoSubmitted() { globalManager.photosSubmitted.Inc() }
func RecordPhotoApproved()  { globalManager.photosApproved.Inc() }
func RecordPhotoRejected()  { globalManager.photosRejected.Inc() }
func RecordTeamCreated()    { globalManager.teamsCreated.Inc() }

// RecordSnapshotBuild records a completed snapshot rebuild and its duration.
func RecordSnapshotBuild(durationMs float64) {
	globalManager.snapshotsBuilt.Inc()
	globalManager.snapshotBuildDuration.Observe(durationMs)
}

func RecordSnapshotCacheHit() { globalManager.snapshotCacheHits.Inc() }
func RecordSnapshotError()    { globalManager.snapshotErrors.Inc() }

func RecordBroadcast()     { globalManager.broadcasts.Inc() }
func RecordBroadcastDrop() { globalManager.broadcastDrops.Inc() }
func RecordPointEvent()    { globalManager.pointEvents.Inc() }

func UpdateSubscribers(n int) { globalManager.subscribers.Set(float64(n)) }

func UpdateBusDepth(n int)     { globalManager.busDepth.Set(float64(n)) }
func RecordBusEnqueueError()   { globalManager.busEnqueueErrors.Inc() }
func UpdateTeamsTotal(n int)   { globalManager.teamsTotal.Set(float64(n)) }
func UpdateGeneration(g uint64) { globalManager.generation.Set(float64(g)) }

// RecordHTTPRequest records an HTTP request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of an HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}
