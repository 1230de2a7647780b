package metrics

import "github.com/prometheus/client_golang/prometheus"

// DashboardMetrics exposes counters/histograms for the review dashboard.
type DashboardMetrics struct {
	loginAttempts *prometheus.CounterVec
	storeQueries  *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
}

func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	m := &DashboardMetrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "dashboard",
			Name:      "login_attempts_total",
			Help:      "Dashboard login attempts by outcome",
		}, []string{"outcome"}),
		storeQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "dashboard",
			Name:      "store_queries_total",
			Help:      "Conversation store queries by operation and outcome",
		}, []string{"operation", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "luna",
			Subsystem: "dashboard",
			Name:      "store_query_seconds",
			Help:      "Latency of conversation store queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Conversation cache lookups by result",
		}, []string{"operation", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.loginAttempts, m.storeQueries, m.storeLatency, m.cacheLookups)
	return m
}

func (m *DashboardMetrics) ObserveLogin(success bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if success {
		outcome = "accepted"
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveStoreQuery records one store call; outcome is "ok", "not_found",
// "unreachable" or "failed".
func (m *DashboardMetrics) ObserveStoreQuery(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.storeQueries.WithLabelValues(operation, outcome).Inc()
	m.storeLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *DashboardMetrics) ObserveCache(operation string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(operation, result).Inc()
}
