package raid

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps the prometheus counters a stacked Device updates as
// members fail and volumes enter or leave degraded mode.
type Metrics struct {
	diskFailures        prometheus.Counter
	degradedTransitions prometheus.Counter
}

// NewMetrics builds a Metrics registered against reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		diskFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "raid", Name: "disk_failures_total",
			Help: "Member devices dropped after returning ErrUnavailable.",
		}),
		degradedTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "raid", Name: "degraded_transitions_total",
			Help: "Times a volume entered degraded (single-failure) mode.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.diskFailures, m.degradedTransitions)
	}
	return m
}

func (m *Metrics) incDiskFailure() {
	if m == nil || m.diskFailures == nil {
		return
	}
	m.diskFailures.Inc()
}

func (m *Metrics) incDegradedTransition() {
	if m == nil || m.degradedTransitions == nil {
		return
	}
	m.degradedTransitions.Inc()
}

// SetMetrics attaches a Metrics recorder to m, to be called any time
// after construction and before serving requests.
func (m *Mirror) SetMetrics(met *Metrics) { m.met = met }

// SetMetrics attaches a Metrics recorder to s.
func (s *Stripe0) SetMetrics(met *Metrics) { s.met = met }

// SetMetrics attaches a Metrics recorder to s.
func (s *Stripe4) SetMetrics(met *Metrics) { s.met = met }
