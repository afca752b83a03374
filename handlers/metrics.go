package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one app. Each app gets its own
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// dashboard
	SearchesTotal    *prometheus.CounterVec
	QuotaCharged     prometheus.Counter
	QuotaUsed        prometheus.Gauge
	ChannelsExcluded prometheus.Counter

	// detector
	UploadsTotal     *prometheus.CounterVec
	DetectionsTotal  prometheus.Counter
	CacheHits        prometheus.Counter
	InferenceSeconds prometheus.Histogram
}

// NewMetrics registers every collector under the given namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds, by route and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	m.RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	m.SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches run, by outcome (ok, error, blocked).",
		},
		[]string{"outcome"},
	)

	m.QuotaCharged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_units_charged_total",
		Help:      "Estimated YouTube API units charged by searches.",
	})

	m.QuotaUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "quota_units_used",
		Help:      "Units used today according to the quota tracker.",
	})

	m.ChannelsExcluded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channels_excluded_total",
		Help:      "Channels dropped by the locale filter.",
	})

	m.UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Image uploads, by outcome.",
		},
		[]string{"outcome"},
	)

	m.DetectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detections_total",
		Help:      "Objects returned to clients.",
	})

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detection_cache_hits_total",
		Help:      "Uploads answered from the detection cache.",
	})

	m.InferenceSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detection_duration_seconds",
		Help:      "Time spent detecting and annotating one image.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	m.Registry.MustRegister(
		m.RequestDuration,
		m.RequestsInFlight,
		m.SearchesTotal,
		m.QuotaCharged,
		m.QuotaUsed,
		m.ChannelsExcluded,
		m.UploadsTotal,
		m.DetectionsTotal,
		m.CacheHits,
		m.InferenceSeconds,
	)
	return m
}

// SearchDone records one dashboard search.
func (m *Metrics) SearchDone(outcome string, charged, excluded, used int) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.QuotaCharged.Add(float64(charged))
	m.ChannelsExcluded.Add(float64(excluded))
	m.QuotaUsed.Set(float64(used))
}

// DetectionDone records one pipeline run.
func (m *Metrics) DetectionDone(outcome string, detections int, cacheHit bool, elapsed time.Duration) {
	if outcome == "ok" {
		m.DetectionsTotal.Add(float64(detections))
		m.InferenceSeconds.Observe(elapsed.Seconds())
	}
	if cacheHit {
		m.CacheHits.Inc()
	}
}

// Middleware records request duration and in-flight count.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// don't instrument the scrape itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.RequestsInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
		m.RequestsInFlight.Dec()
	}
}

// Handler serves GET /metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
