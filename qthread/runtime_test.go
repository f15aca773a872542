package qthread

import (
	"sync"
	"testing"
	"time"
)

func TestYieldRoundRobin(t *testing.T) {
	rt := NewRuntime()
	var order []int
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		i := i
		rt.Go(func(self *Thread) interface{} {
			for round := 0; round < 2; round++ {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				rt.Yield(self)
			}
			return nil
		})
	}
	rt.Run()

	want := []int{0, 1, 2, 0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestExitAndJoin(t *testing.T) {
	rt := NewRuntime()
	var joined interface{}

	worker := rt.Go(func(self *Thread) interface{} {
		rt.Yield(self)
		return 42
	})
	rt.Go(func(self *Thread) interface{} {
		joined = rt.Join(self, worker)
		return nil
	})
	rt.Run()

	if joined != 42 {
		t.Fatalf("joined = %v, want 42", joined)
	}
}

func TestJoinBeforeExit(t *testing.T) {
	rt := NewRuntime()
	var seen []string

	worker := rt.Go(func(self *Thread) interface{} {
		seen = append(seen, "worker-start")
		rt.Yield(self)
		seen = append(seen, "worker-end")
		return "done"
	})
	joiner := rt.Go(func(self *Thread) interface{} {
		seen = append(seen, "joiner-wait")
		val := rt.Join(self, worker)
		seen = append(seen, "joiner-got-"+val.(string))
		return nil
	})
	_ = joiner
	rt.Run()

	if len(seen) != 4 || seen[3] != "joiner-got-done" {
		t.Fatalf("unexpected sequence: %v", seen)
	}
}

func TestMutexMutualExclusion(t *testing.T) {
	rt := NewRuntime()
	m := NewMutex(rt)
	counter := 0
	const n = 5

	for i := 0; i < n; i++ {
		rt.Go(func(self *Thread) interface{} {
			m.Lock(self)
			tmp := counter
			rt.Yield(self)
			counter = tmp + 1
			m.Unlock()
			return nil
		})
	}
	rt.Run()

	if counter != n {
		t.Fatalf("counter = %d, want %d (mutex should have serialized increments)", counter, n)
	}
}

func TestCondSignalWakesOneWaiter(t *testing.T) {
	rt := NewRuntime()
	m := NewMutex(rt)
	c := NewCond(rt)
	ready := false
	woken := 0

	for i := 0; i < 2; i++ {
		rt.Go(func(self *Thread) interface{} {
			m.Lock(self)
			for !ready {
				c.Wait(self, m)
			}
			woken++
			m.Unlock()
			return nil
		})
	}
	rt.Go(func(self *Thread) interface{} {
		m.Lock(self)
		ready = true
		c.Signal()
		m.Unlock()
		return nil
	})
	rt.Run()

	if woken != 1 {
		t.Fatalf("woken = %d, want 1", woken)
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	rt := NewRuntime()
	m := NewMutex(rt)
	c := NewCond(rt)
	ready := false
	woken := 0

	for i := 0; i < 3; i++ {
		rt.Go(func(self *Thread) interface{} {
			m.Lock(self)
			for !ready {
				c.Wait(self, m)
			}
			woken++
			m.Unlock()
			return nil
		})
	}
	rt.Go(func(self *Thread) interface{} {
		m.Lock(self)
		ready = true
		c.Broadcast()
		m.Unlock()
		return nil
	})
	rt.Run()

	if woken != 3 {
		t.Fatalf("woken = %d, want 3", woken)
	}
}

func TestUsleepRespectsMinimumDuration(t *testing.T) {
	rt := NewRuntime()
	const sleepFor = 20 * time.Millisecond
	start := time.Now()

	rt.Go(func(self *Thread) interface{} {
		rt.Usleep(self, sleepFor)
		return nil
	})
	rt.Run()

	if elapsed := time.Since(start); elapsed < sleepFor {
		t.Fatalf("returned after %v, want at least %v", elapsed, sleepFor)
	}
}

func TestEmptyRuntimeRunReturnsImmediately(t *testing.T) {
	rt := NewRuntime()
	done := make(chan struct{})
	go func() {
		rt.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run on an empty runtime did not return")
	}
}
