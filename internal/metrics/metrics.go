// Package metrics records trading cycle activity for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes cycle, decision and execution metrics. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	skips         *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	executions    *prometheus.CounterVec
	busyDrops     prometheus.Counter
	momentum      *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	inFlight      prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suimomentum_cycles_total",
				Help: "Trading cycles by outcome",
			},
			[]string{"outcome"},
		),
		skips: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suimomentum_pair_skips_total",
				Help: "Pairs skipped during evaluation by reason",
			},
			[]string{"pair", "reason"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suimomentum_decisions_total",
				Help: "Opportunities selected for execution",
			},
			[]string{"pair"},
		),
		executions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suimomentum_executions_total",
				Help: "Swap executions by status",
			},
			[]string{"pair", "status"},
		),
		busyDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "suimomentum_busy_drops_total",
			Help: "Decisions dropped because an execution was in flight",
		}),
		momentum: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "suimomentum_momentum_ratio",
				Help: "Last computed momentum ratio per symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "suimomentum_last_price",
				Help: "Last fetched price per symbol",
			},
			[]string{"symbol"},
		),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "suimomentum_execution_in_flight",
			Help: "1 while a swap execution is in flight",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "suimomentum_cycle_duration_seconds",
			Help:    "Duration of trading cycles in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(seconds)
}

func (r *Recorder) RecordSkip(pair, reason string) {
	if r == nil {
		return
	}
	r.skips.WithLabelValues(pair, reason).Inc()
}

func (r *Recorder) RecordDecision(pair string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(pair).Inc()
}

func (r *Recorder) RecordExecution(pair, status string) {
	if r == nil {
		return
	}
	r.executions.WithLabelValues(pair, status).Inc()
}

func (r *Recorder) RecordBusyDrop() {
	if r == nil {
		return
	}
	r.busyDrops.Inc()
}

func (r *Recorder) RecordMomentum(symbol string, ratio float64) {
	if r == nil {
		return
	}
	r.momentum.WithLabelValues(symbol).Set(ratio)
}

func (r *Recorder) RecordPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) SetInFlight(inFlight bool) {
	if r == nil {
		return
	}
	if inFlight {
		r.inFlight.Set(1)
	} else {
		r.inFlight.Set(0)
	}
}
