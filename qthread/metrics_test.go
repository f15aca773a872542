package qthread

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountThreadsAndSwitches(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := NewMetrics(reg, "sysk_test")
	rt := NewRuntime(WithMetrics(met))

	var ran int
	rt.Go(func(self *Thread) interface{} {
		ran++
		return nil
	})
	rt.Go(func(self *Thread) interface{} {
		ran++
		return nil
	})
	rt.Run()

	if ran != 2 {
		t.Fatalf("ran = %d, want 2", ran)
	}
	if got := testutil.ToFloat64(met.threadStarts); got != 2 {
		t.Fatalf("thread_starts_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(met.threadExits); got != 2 {
		t.Fatalf("thread_exits_total = %v, want 2", got)
	}
}
