// Package metrics collects and exposes Prometheus metrics for the tap
// pipeline and reader fleet.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evanmarcey/passage/internal/passage/types"
)

type Collector struct {
	tapOutcomes *prometheus.CounterVec
	tapLatency  prometheus.Histogram
	heartbeats  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tapOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passage_tap_outcomes_total",
			Help: "Tap results by outcome (entry, exit, unauthorized, fallback).",
		}, []string{"outcome"}),
		tapLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "passage_tap_duration_seconds",
			Help:    "End-to-end tap processing latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passage_reader_heartbeats_total",
			Help: "Reader heartbeats by registration status.",
		}, []string{"registered"}),
	}

	reg.MustRegister(c.tapOutcomes, c.tapLatency, c.heartbeats)
	return c
}

func (c *Collector) RecordTapOutcome(outcome types.Outcome) {
	c.tapOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (c *Collector) RecordTapLatency(d time.Duration) {
	c.tapLatency.Observe(d.Seconds())
}

func (c *Collector) RecordHeartbeat(registered bool) {
	c.heartbeats.WithLabelValues(strconv.FormatBool(registered)).Inc()
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
