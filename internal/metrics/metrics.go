// Package metrics collects conversation metrics for the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and records all conversation metrics on its own
// registry.
type Collector struct {
	registry *prometheus.Registry

	turnsTotal         *prometheus.CounterVec
	turnDuration       prometheus.Histogram
	collaboratorFaults *prometheus.CounterVec
	ordersConfirmed    prometheus.Counter
	orderValue         prometheus.Histogram
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversation_turns_total",
				Help: "Conversation turns processed, by the state they started in",
			},
			[]string{"state"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "conversation_turn_duration_seconds",
				Help:    "Time taken to process one conversation turn",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		collaboratorFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaborator_faults_total",
				Help: "Collaborator calls that faulted and were degraded",
			},
			[]string{"collaborator"},
		),
		ordersConfirmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_confirmed_total",
				Help: "Orders confirmed and written to the knowledge store",
			},
		),
		orderValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "order_value_dollars",
				Help:    "Value of confirmed orders",
				Buckets: prometheus.LinearBuckets(5, 15, 10),
			},
		),
	}

	c.registry.MustRegister(
		c.turnsTotal,
		c.turnDuration,
		c.collaboratorFaults,
		c.ordersConfirmed,
		c.orderValue,
	)
	return c
}

// Registry returns the collector's registry for the metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordTurn records one processed turn.
func (c *Collector) RecordTurn(state string, d time.Duration) {
	c.turnsTotal.WithLabelValues(state).Inc()
	c.turnDuration.Observe(d.Seconds())
}

// RecordFault records a degraded collaborator call.
func (c *Collector) RecordFault(collaborator string) {
	c.collaboratorFaults.WithLabelValues(collaborator).Inc()
}

// RecordOrder records a confirmed order and its total.
func (c *Collector) RecordOrder(total float64) {
	c.ordersConfirmed.Inc()
	c.orderValue.Observe(total)
}
