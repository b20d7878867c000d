package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	activitiesSubmittedTotal    *prometheus.CounterVec
	activityReviewsTotal        *prometheus.CounterVec
	allocationsCreatedTotal     prometheus.Counter
	notificationsPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		activitiesSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_activities_submitted_total",
			Help: "Total number of activities submitted by students.",
		}, []string{"activity_type"})

		activityReviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_activity_reviews_total",
			Help: "Total number of review decisions applied.",
		}, []string{"decision"})

		allocationsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_allocations_created_total",
			Help: "Total number of teacher-student allocations created.",
		})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_notifications_published_total",
			Help: "Total number of notifications published to users.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			activitiesSubmittedTotal,
			activityReviewsTotal,
			allocationsCreatedTotal,
			notificationsPublishedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ActivitiesSubmittedTotal exposes the counter for student submissions.
func ActivitiesSubmittedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return activitiesSubmittedTotal
}

// ActivityReviewsTotal exposes the counter for review decisions.
func ActivityReviewsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return activityReviewsTotal
}

// AllocationsCreatedTotal exposes the counter for created allocations.
func AllocationsCreatedTotal() prometheus.Counter {
	RegisterMetrics()
	return allocationsCreatedTotal
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}
