package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		registrationsStartedTotal,
		registrationsCompletedTotal,
		registrationStepRejectedTotal,
		photoUploadsTotal,
		orphanedObjectsTotal,
		finalizeDuration,
	)
}

var (
	registrationsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registration_started_total",
			Help: "Wizards started after a contact was shared.",
		},
	)

	registrationsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_completed_total",
			Help: "Finalize attempts by outcome.",
		},
		[]string{"result"}, // 'succeeded', 'upload_failed', 'offline', 'failed'
	)

	registrationStepRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_step_rejected_total",
			Help: "Inputs refused by a wizard step, labeled by step and reason.",
		},
		[]string{"step", "reason"},
	)

	photoUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_photo_uploads_total",
			Help: "Individual photo upload attempts by status.",
		},
		[]string{"status"},
	)

	orphanedObjectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registration_orphaned_objects_total",
			Help: "Uploaded photos left in storage after an aborted finalize.",
		},
	)

	finalizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registration_finalize_duration_seconds",
			Help:    "Wall time of the finalize sequence.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)
)

func IncRegistrationStarted() { registrationsStartedTotal.Inc() }

func IncRegistrationCompleted(result string) {
	registrationsCompletedTotal.WithLabelValues(norm(result)).Inc()
}

func IncStepRejected(step, reason string) {
	registrationStepRejectedTotal.WithLabelValues(norm(step), norm(reason)).Inc()
}

func IncPhotoUpload(status string) {
	photoUploadsTotal.WithLabelValues(norm(status)).Inc()
}

func AddOrphanedObjects(n int) {
	if n > 0 {
		orphanedObjectsTotal.Add(float64(n))
	}
}

func ObserveFinalize(d time.Duration) {
	finalizeDuration.Observe(d.Seconds())
}
