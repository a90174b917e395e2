package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"busline/internal/mylogger"
)

type Collector struct {
	reg *prometheus.Registry

	TripsGenerated prometheus.Counter
	TripsSkipped   *prometheus.CounterVec // reason label
	TripsFallback  prometheus.Counter

	TicketsSold     prometheus.Counter
	SeatConflicts   prometheus.Counter
	ActiveSeatHolds prometheus.Gauge

	GenerationDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busline_trips_generated_total",
			Help: "Total trips created by the generator.",
		}),
		TripsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busline_trips_skipped_total",
			Help: "Total generator slots skipped, by reason.",
		}, []string{"reason"}),
		TripsFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busline_trips_fallback_total",
			Help: "Total trips assigned via the round-robin fallback path.",
		}),
		TicketsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busline_tickets_sold_total",
			Help: "Total tickets created.",
		}),
		SeatConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busline_seat_conflicts_total",
			Help: "Total seat reservations rejected because the seat was taken.",
		}),
		ActiveSeatHolds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busline_active_seat_holds",
			Help: "Advisory seat holds currently alive.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busline_generation_duration_seconds",
			Help:    "Wall time of a whole GenerateTrips run.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.TripsGenerated,
		c.TripsSkipped,
		c.TripsFallback,
		c.TicketsSold,
		c.SeatConflicts,
		c.ActiveSeatHolds,
		c.GenerationDuration,
	)

	return c
}

func (c *Collector) ObserveGeneration(start time.Time) {
	c.GenerationDuration.Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on addr. It never returns unless the listener fails.
func (c *Collector) Serve(addr string, log mylogger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Action("metrics_listener_failed").Error("metrics listener stopped", err)
	}
}
