package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for guest registration, removal and occupancy reports.
type Metrics struct {
	GuestsRegistered       prometheus.Counter
	DuplicateRegistrations prometheus.Counter
	GuestsRemoved          prometheus.Counter
	RemovalMisses          prometheus.Counter
	CounterCorrections     prometheus.Counter
	ActiveGuests           prometheus.Gauge
	OccupancyRatio         prometheus.Gauge
	OverstayingGuests      prometheus.Gauge
	ReportDuration         prometheus.Histogram
}

// New creates a Metrics instance with every metric registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GuestsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_guests_registered_total",
			Help: "Total number of guests registered",
		}),
		DuplicateRegistrations: f.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_duplicate_registrations_total",
			Help: "Registrations rejected because the UID was already present",
		}),
		GuestsRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_guests_removed_total",
			Help: "Total number of guests removed",
		}),
		RemovalMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_removal_misses_total",
			Help: "Removal requests for a UID nobody holds",
		}),
		CounterCorrections: f.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_active_counter_corrections_total",
			Help: "Times the cached active-guest counter was found out of sync and rewritten",
		}),
		ActiveGuests: f.NewGauge(prometheus.GaugeOpts{
			Name: "guesthouse_active_guests",
			Help: "Guests currently registered, as of the last report",
		}),
		OccupancyRatio: f.NewGauge(prometheus.GaugeOpts{
			Name: "guesthouse_occupancy_ratio",
			Help: "Active guests divided by capacity, as of the last occupancy report",
		}),
		OverstayingGuests: f.NewGauge(prometheus.GaugeOpts{
			Name: "guesthouse_overstaying_guests",
			Help: "Guests past the settlement threshold, as of the last occupancy report",
		}),
		ReportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guesthouse_report_duration_seconds",
			Help:    "Duration of occupancy report generation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveReport records the duration of a report. Call with time.Now() at the start.
func (m *Metrics) ObserveReport(start time.Time) {
	m.ReportDuration.Observe(time.Since(start).Seconds())
}
