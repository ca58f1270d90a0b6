package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics exposes counters/histograms for availability reads.
type AvailabilityMetrics struct {
	queriesTotal  *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	slotsReturned prometheus.Histogram
	staffErrors   prometheus.Counter
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonkit",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Total availability queries",
		}, []string{"status"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salonkit",
			Subsystem: "availability",
			Name:      "query_latency_seconds",
			Help:      "Latency of availability resolution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		slotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salonkit",
			Subsystem: "availability",
			Name:      "slots_returned",
			Help:      "Slots returned per availability query",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		staffErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salonkit",
			Subsystem: "availability",
			Name:      "staff_subquery_errors_total",
			Help:      "Per-staff sub-query failures during fan-out",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.queryLatency, m.slotsReturned, m.staffErrors)
	return m
}

func (m *AvailabilityMetrics) ObserveQuery(status string, seconds float64, slots int) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(status).Inc()
	m.queryLatency.WithLabelValues(status).Observe(seconds)
	m.slotsReturned.Observe(float64(slots))
}

func (m *AvailabilityMetrics) ObserveStaffError() {
	if m == nil {
		return
	}
	m.staffErrors.Inc()
}

// BookingMetrics exposes counters for booking commit outcomes.
type BookingMetrics struct {
	commitsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salonkit",
			Subsystem: "bookings",
			Name:      "commits_total",
			Help:      "Booking commit attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.commitsTotal)
	return m
}

func (m *BookingMetrics) ObserveCommit(outcome string) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(outcome).Inc()
}
