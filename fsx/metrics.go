package fsx

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps the prometheus counters a mounted FileSystem updates as
// it allocates and frees inodes and blocks. A nil-safe zero value (see
// nullMetrics) is used when the caller does not supply one via
// WithMetrics, so every call site can unconditionally invoke the
// inc helpers below.
type Metrics struct {
	inodeAllocs prometheus.Counter
	inodeFrees  prometheus.Counter
	blockAllocs prometheus.Counter
	blockFrees  prometheus.Counter
}

// NewMetrics builds a Metrics registered against reg under the given
// namespace, e.g. "sysk".
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		inodeAllocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fs", Name: "inode_allocs_total",
			Help: "Inodes allocated since mount.",
		}),
		inodeFrees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fs", Name: "inode_frees_total",
			Help: "Inodes freed since mount.",
		}),
		blockAllocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fs", Name: "block_allocs_total",
			Help: "Data blocks allocated since mount.",
		}),
		blockFrees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fs", Name: "block_frees_total",
			Help: "Data blocks freed since mount.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.inodeAllocs, m.inodeFrees, m.blockAllocs, m.blockFrees)
	}
	return m
}

func nullMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) incInodeAlloc() {
	if m == nil || m.inodeAllocs == nil {
		return
	}
	m.inodeAllocs.Inc()
}

func (m *Metrics) incInodeFree() {
	if m == nil || m.inodeFrees == nil {
		return
	}
	m.inodeFrees.Inc()
}

func (m *Metrics) incBlockAlloc() {
	if m == nil || m.blockAllocs == nil {
		return
	}
	m.blockAllocs.Inc()
}

func (m *Metrics) incBlockFree() {
	if m == nil || m.blockFrees == nil {
		return
	}
	m.blockFrees.Inc()
}
