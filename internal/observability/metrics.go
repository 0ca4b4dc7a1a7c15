package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	tasksCreatedTotal     *prometheus.CounterVec
	assignmentsFannedOut  prometheus.Counter
	submissionsReceived   prometheus.Counter
	reviewsCompletedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the task
// workflow API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutask_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edutask_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutask_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		tasksCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutask_tasks_created_total",
			Help: "Total number of tasks created, labelled by fan-out policy.",
		}, []string{"policy"})

		assignmentsFannedOut = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edutask_assignments_fanned_out_total",
			Help: "Total number of assignments materialised by fan-out.",
		})

		submissionsReceived = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edutask_submissions_received_total",
			Help: "Total number of student submissions stored.",
		})

		reviewsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edutask_reviews_completed_total",
			Help: "Total number of teacher reviews recorded.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			tasksCreatedTotal,
			assignmentsFannedOut,
			submissionsReceived,
			reviewsCompletedTotal,
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

// TasksCreated exposes the per-policy task creation counter.
func TasksCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return tasksCreatedTotal
}

// AssignmentsFannedOut exposes the fan-out counter.
func AssignmentsFannedOut() prometheus.Counter {
	RegisterMetrics()
	return assignmentsFannedOut
}

// SubmissionsReceived exposes the submission counter.
func SubmissionsReceived() prometheus.Counter {
	RegisterMetrics()
	return submissionsReceived
}

// ReviewsCompleted exposes the review counter.
func ReviewsCompleted() prometheus.Counter {
	RegisterMetrics()
	return reviewsCompletedTotal
}
