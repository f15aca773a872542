// Package metrics wires up the process-wide Prometheus registry and
// hands out the per-package recorders (fsx, qthread, raid) that get
// threaded through at mount/runtime/volume construction time.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdesnoyers/sysk/fsx"
	"github.com/pdesnoyers/sysk/qthread"
	"github.com/pdesnoyers/sysk/raid"
)

// Registry owns the process's Prometheus registry and the recorders
// built against it.
type Registry struct {
	reg *prometheus.Registry

	FS      *fsx.Metrics
	Runtime *qthread.Metrics
	RAID    *raid.Metrics
}

// New builds a Registry with every domain recorder registered under
// namespace (e.g. "sysk").
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{
		reg:     reg,
		FS:      fsx.NewMetrics(reg, namespace),
		Runtime: qthread.NewMetrics(reg, namespace),
		RAID:    raid.NewMetrics(reg, namespace),
	}
}

// Handler returns the HTTP handler to mount at e.g. /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
