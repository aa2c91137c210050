package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "reservation_transitions_total",
			Help:      "Reservation lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	availabilityRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "availability_rejections_total",
			Help:      "Booking attempts rejected, by reason.",
		},
		[]string{"reason"},
	)

	shiftConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "shift_conflicts_total",
			Help:      "Shift writes rejected because of overlapping shifts.",
		},
	)

	workerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "worker_tasks_total",
			Help:      "Background tasks processed, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			reservationTransitions,
			availabilityRejections,
			shiftConflicts,
			workerTasks,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReservationTransition counts a lifecycle move into the given status.
func IncReservationTransition(status string) {
	reservationTransitions.WithLabelValues(status).Inc()
}

// IncAvailabilityRejection counts a rejected booking attempt.
// Reasons: "capacity", "blocked", "cutoff".
func IncAvailabilityRejection(reason string) {
	availabilityRejections.WithLabelValues(reason).Inc()
}

// IncShiftConflict counts a shift write rejected by the overlap check.
func IncShiftConflict() {
	shiftConflicts.Inc()
}

// IncWorkerTask counts a processed background task.
// Outcomes: "done", "retry", "failed".
func IncWorkerTask(taskType, outcome string) {
	workerTasks.WithLabelValues(taskType, outcome).Inc()
}
