// Package observability exposes Prometheus metrics for the simulation loop.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the loop metrics and a handler to scrape them.
type Collector struct {
	registry *prometheus.Registry

	TickDuration     prometheus.Histogram
	TicksTotal       prometheus.Counter
	OverrunsTotal    prometheus.Counter
	FaultsTotal      *prometheus.CounterVec
	ReceiverPressure prometheus.Gauge
	CornerPressure   *prometheus.GaugeVec
}

// NewCollector registers the simulation metrics against a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sim_tick_duration_seconds",
			Help:    "Wall-clock time spent computing one simulation tick.",
			Buckets: []float64{10e-6, 25e-6, 50e-6, 100e-6, 250e-6, 500e-6, 1e-3, 2.5e-3, 5e-3},
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Total number of simulation ticks executed.",
		}),
		OverrunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_tick_overruns_total",
			Help: "Ticks whose computation exceeded the tick budget.",
		}),
		FaultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_faults_total",
			Help: "Per-tick faults, labeled by component and severity.",
		}, []string{"component", "severity"}),
		ReceiverPressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_receiver_pressure_pascal",
			Help: "Receiver tank pressure from the latest snapshot.",
		}),
		CornerPressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_chamber_pressure_pascal",
			Help: "Chamber pressure from the latest snapshot, by corner and chamber.",
		}, []string{"corner", "chamber"}),
	}

	reg.MustRegister(c.TickDuration, c.TicksTotal, c.OverrunsTotal,
		c.FaultsTotal, c.ReceiverPressure, c.CornerPressure)
	return c
}

// ObserveTick records one completed tick.
func (c *Collector) ObserveTick(elapsed time.Duration, budget time.Duration) {
	c.TicksTotal.Inc()
	c.TickDuration.Observe(elapsed.Seconds())
	if elapsed > budget {
		c.OverrunsTotal.Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
