// Package metrics implements mevo.MetricsRecorder as a prometheus.Collector,
// following the Collector-with-an-internal-snapshot pattern used by the
// example pack's TCP exporters (conniver/sockstats pkg/exporter).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector accumulates Mevo client counters/observations and exposes them
// as the five series named by SPEC_FULL.md §4.10. The underlying
// prometheus metric types are already safe for concurrent scrape/update.
type Collector struct {
	handshakePhaseSeconds *prometheus.HistogramVec
	keepaliveLatency      *prometheus.HistogramVec
	shotsTotal            prometheus.Counter
	framingErrorsTotal    *prometheus.CounterVec
	armed                 prometheus.Gauge
}

// New constructs a Collector. Register it with a prometheus.Registry (or
// prometheus.MustRegister) the way any other Collector is registered.
func New() *Collector {
	return &Collector{
		handshakePhaseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ironsight_handshake_phase_duration_seconds",
			Help:    "Duration of each handshake phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		keepaliveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ironsight_keepalive_latency_seconds",
			Help:    "Round-trip latency of armed-session keepalive STATUS polls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"bus"}),
		shotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironsight_shots_total",
			Help: "Total shots assembled and delivered to the caller.",
		}),
		framingErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironsight_framing_errors_total",
			Help: "Total frame decode failures, by error kind.",
		}, []string{"kind"}),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironsight_armed",
			Help: "1 from handshake completion until the session faults or goes dormant, 0 otherwise.",
		}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.handshakePhaseSeconds.Describe(ch)
	c.keepaliveLatency.Describe(ch)
	ch <- c.shotsTotal.Desc()
	c.framingErrorsTotal.Describe(ch)
	ch <- c.armed.Desc()
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.handshakePhaseSeconds.Collect(ch)
	c.keepaliveLatency.Collect(ch)
	ch <- c.shotsTotal
	c.framingErrorsTotal.Collect(ch)
	ch <- c.armed
}

// ObserveHandshakePhase implements mevo.MetricsRecorder.
func (c *Collector) ObserveHandshakePhase(phase string, d time.Duration) {
	c.handshakePhaseSeconds.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveKeepaliveLatency implements mevo.MetricsRecorder.
func (c *Collector) ObserveKeepaliveLatency(bus string, d time.Duration) {
	c.keepaliveLatency.WithLabelValues(bus).Observe(d.Seconds())
}

// IncShots implements mevo.MetricsRecorder.
func (c *Collector) IncShots() {
	c.shotsTotal.Inc()
}

// IncFramingError implements mevo.MetricsRecorder.
func (c *Collector) IncFramingError(kind string) {
	c.framingErrorsTotal.WithLabelValues(kind).Inc()
}

// SetArmed implements mevo.MetricsRecorder.
func (c *Collector) SetArmed(isArmed bool) {
	if isArmed {
		c.armed.Set(1)
		return
	}
	c.armed.Set(0)
}
