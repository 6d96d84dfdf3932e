package telemetry

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crmarques/restresource/factory"
	"github.com/crmarques/restresource/faults"
)

const metricsNamespace = "restresource"

var _ factory.Recorder = (*Metrics)(nil)

// Metrics records pipeline outcomes as Prometheus series.
type Metrics struct {
	cacheLookups      *prometheus.CounterVec
	transportRequests *prometheus.CounterVec
	transportDuration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on registerer. A nil
// registerer uses prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	auto := promauto.With(registerer)

	return &Metrics{
		cacheLookups: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups performed before transport calls.",
		}, []string{"namespace", "action", "result"}),
		transportRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transport_requests_total",
			Help:      "Transport calls by outcome category.",
		}, []string{"namespace", "action", "method", "outcome"}),
		transportDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "transport_request_duration_seconds",
			Help:      "Transport call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace", "action", "method"}),
	}
}

func (m *Metrics) CacheLookup(namespace string, action string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, action, result).Inc()
}

func (m *Metrics) TransportCall(namespace string, action string, method string, duration time.Duration, err error) {
	m.transportRequests.WithLabelValues(namespace, action, method, outcome(err)).Inc()
	m.transportDuration.WithLabelValues(namespace, action, method).Observe(duration.Seconds())
}

// outcome reports the most specific category of err, or "ok".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, category := range []faults.ErrorCategory{
		faults.AuthError,
		faults.NotFoundError,
		faults.ConflictError,
		faults.ValidationError,
	} {
		if faults.IsCategory(err, category) {
			return strings.ToLower(strings.TrimSuffix(string(category), "Error"))
		}
	}
	return strings.ToLower(strings.TrimSuffix(string(faults.CategoryOf(err)), "Error"))
}
