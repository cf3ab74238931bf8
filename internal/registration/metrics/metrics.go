package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
// Tracks registration lifecycle counts and critical path durations.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	RegistrationsCancelled prometheus.Counter
	AttendeesAdded         *prometheus.CounterVec
	AttendeesRemoved       prometheus.Counter
	SelectionsChanged      prometheus.Counter
	CatalogRefreshes       prometheus.Counter
	RecomputeDuration      prometheus.Histogram
	CatalogFetchDuration   prometheus.Histogram
	SnapshotSaveDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all registration module metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_registrations_started_total",
			Help: "Total number of registrations started",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_registrations_completed_total",
			Help: "Total number of registrations confirmed and completed",
		}),
		RegistrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_registrations_cancelled_total",
			Help: "Total number of registrations cancelled",
		}),
		AttendeesAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cornerstone_attendees_added_total",
			Help: "Total number of attendees added, by role",
		}, []string{"role"}),
		AttendeesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_attendees_removed_total",
			Help: "Total number of attendees removed, including cascade removals",
		}),
		SelectionsChanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_selections_changed_total",
			Help: "Total number of ticket or package selection changes",
		}),
		CatalogRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cornerstone_catalog_refreshes_total",
			Help: "Total number of event catalog refreshes from the upstream API",
		}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cornerstone_order_recompute_duration_seconds",
			Help:    "Duration of order summary recomputation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		CatalogFetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cornerstone_catalog_fetch_duration_seconds",
			Help:    "Duration of upstream catalog fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SnapshotSaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cornerstone_snapshot_save_duration_seconds",
			Help:    "Duration of registration snapshot persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementAttendeesAdded records an attendee addition with its role.
func (m *Metrics) IncrementAttendeesAdded(role string) {
	m.AttendeesAdded.WithLabelValues(role).Inc()
}

// ObserveRecompute records the duration of an order summary recomputation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecompute(start time.Time) {
	m.RecomputeDuration.Observe(time.Since(start).Seconds())
}

// ObserveCatalogFetch records the duration of an upstream catalog fetch.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCatalogFetch(start time.Time) {
	m.CatalogFetchDuration.Observe(time.Since(start).Seconds())
}

// ObserveSnapshotSave records the duration of a snapshot save.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSnapshotSave(start time.Time) {
	m.SnapshotSaveDuration.Observe(time.Since(start).Seconds())
}
