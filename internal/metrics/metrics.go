package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AssignmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "assignments_created_total", Help: "Ledger entries created"},
		[]string{"method"},
	)
	DuplicatesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "assignment_duplicates_skipped_total", Help: "Batch pairs skipped on a duplicate triple"},
		[]string{"method"},
	)
	AssignmentsRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "assignments_removed_total", Help: "Ledger entries removed by unassign"},
	)

	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "outbox_processed_total", Help: "Total processed outbox events"},
	)
	FailedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "outbox_failed_total", Help: "Total failed outbox events"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "outbox_dlq_total", Help: "Total events inserted into DLQ"},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifications_sent_total", Help: "Task-assigned notices delivered"},
		[]string{"driver"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

func Register() {
	prometheus.MustRegister(
		AssignmentsCreated, DuplicatesSkipped, AssignmentsRemoved,
		ProcessedEvents, FailedEvents, DLQEvents,
		NotificationsSent, APIRequestDuration,
	)
}
