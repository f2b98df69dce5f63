package metrics

import (
	"time"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/prometheus/client_golang/prometheus"
)

// gatewayStates lists every value the state gauge can take.
var gatewayStates = []string{"UNINITIALIZED", "VALIDATING", "ACTIVE"}

// GatewayMetrics implements gateway.Observer.
type GatewayMetrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
	state   *prometheus.GaugeVec
}

// NewGatewayMetrics registers gateway collectors on reg.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "ops_total",
		Help:      "Total number of gateway operations by result.",
	}, []string{"op", "result"}) // result = "ok" | error kind
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "op_duration_seconds",
		Help:      "Histogram of gateway operation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "state",
		Help:      "Lifecycle state of the backend connection; 1 for the current state.",
	}, []string{"state"})

	reg.MustRegister(ops, latency, state)
	return &GatewayMetrics{ops: ops, latency: latency, state: state}
}

// ObserveOperation records one gateway call.
func (g *GatewayMetrics) ObserveOperation(op string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = errs.KindOf(err).String()
	}
	g.ops.WithLabelValues(op, result).Inc()
	g.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveState marks state as the current one.
func (g *GatewayMetrics) ObserveState(state string) {
	for _, s := range gatewayStates {
		v := 0.0
		if s == state {
			v = 1
		}
		g.state.WithLabelValues(s).Set(v)
	}
}
