package qthread

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps the prometheus counters a Runtime updates as threads
// are spawned, exit, and get switched onto the token. A nil-safe zero
// value is used when a Runtime is built without WithMetrics.
type Metrics struct {
	threadStarts    prometheus.Counter
	threadExits     prometheus.Counter
	contextSwitches prometheus.Counter
}

// NewMetrics builds a Metrics registered against reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		threadStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "qthread", Name: "thread_starts_total",
			Help: "Threads spawned via Runtime.Go.",
		}),
		threadExits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "qthread", Name: "thread_exits_total",
			Help: "Threads that have run to completion.",
		}),
		contextSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "qthread", Name: "context_switches_total",
			Help: "Token handoffs between threads.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.threadStarts, m.threadExits, m.contextSwitches)
	}
	return m
}

func (m *Metrics) incThreadStart() {
	if m == nil || m.threadStarts == nil {
		return
	}
	m.threadStarts.Inc()
}

func (m *Metrics) incThreadExit() {
	if m == nil || m.threadExits == nil {
		return
	}
	m.threadExits.Inc()
}

func (m *Metrics) incContextSwitch() {
	if m == nil || m.contextSwitches == nil {
		return
	}
	m.contextSwitches.Inc()
}

// RuntimeOption configures a Runtime at construction time.
type RuntimeOption func(*Runtime)

// WithMetrics attaches a Metrics recorder to a Runtime.
func WithMetrics(m *Metrics) RuntimeOption {
	return func(rt *Runtime) { rt.met = m }
}
