// Package qthread implements a cooperative, user-space thread runtime:
// one goroutine per thread, parked on a private channel and resumed
// one at a time by a single active scheduler, emulating the
// single-token-holder discipline of a stack-switching coroutine
// library without touching assembly.
package qthread

import "time"

// PendTime is the scheduling quantum: the longest a Run loop will
// block in a select(2) waiting for I/O readiness, or in a plain sleep
// waiting for the nearest sleeper deadline, before re-checking its
// queues. It mirrors the PEND_TIME constant a select-based scheduler
// is built around.
const PendTime = 10 * time.Millisecond

type ioStatus int

const (
	ioNone ioStatus = iota
	ioRead
	ioWrite
)

// Thread is one cooperatively scheduled unit of work. Callers never
// construct a Thread directly; they get one back from Runtime.Go.
type Thread struct {
	rt     *Runtime
	ctx    context
	done   bool
	retval interface{}
	waiter *Thread

	status ioStatus
	fd     int

	wakeAt time.Time
}

// queue is a FIFO of threads, mirroring the linked tqueue the original
// scheduler walks with head/tail pointers.
type queue struct {
	items []*Thread
}

func (q *queue) empty() bool { return len(q.items) == 0 }

func (q *queue) append(t *Thread) {
	q.items = append(q.items, t)
}

func (q *queue) pop() *Thread {
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

// removeAll drains the queue, invoking f on every thread in FIFO
// order and leaving the queue empty.
func (q *queue) removeAll(f func(*Thread)) {
	for !q.empty() {
		f(q.pop())
	}
}

// Runtime owns the cooperative scheduler state: the active, sleeping
// and I/O-waiting queues, and the token currently in play. A Runtime
// has no package-level globals backing it, so a process may run more
// than one independent scheduler if it wants to.
type Runtime struct {
	active    queue
	sleepers  queue
	ioWaiters queue

	current *Thread
	main    context
	met     *Metrics
}

// NewRuntime allocates a scheduler with empty queues. Call Go to spawn
// threads and Run to drive the scheduler until every thread has
// exited.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{main: newContext()}
	for _, o := range opts {
		o(rt)
	}
	return rt
}

// Go spawns a new thread running f and returns a handle to it. The
// thread is appended to the active queue; it does not actually run
// until the scheduler gets around to it.
func (rt *Runtime) Go(f func(t *Thread) interface{}) *Thread {
	t := &Thread{rt: rt, ctx: newContext()}
	go func() {
		t.ctx.park()
		val := f(t)
		rt.exit(t, val)
	}()
	rt.active.append(t)
	rt.met.incThreadStart()
	return t
}

// Run drives the scheduler until there is nothing left to run: every
// thread has exited, or every remaining thread is parked on a Mutex,
// Cond or Join that nothing is left to release (sleeping and
// I/O-waiting threads keep Run going). It returns once control reverts to
// the caller, i.e. once the active/sleepers/io_waiters queues have
// nothing left to hand the token to, the same point at which the
// original's qthread_run returns control to whoever called it.
func (rt *Runtime) Run() {
	if rt.active.empty() && rt.sleepers.empty() && rt.ioWaiters.empty() {
		return
	}
	rt.schedule(nil, rt.main)
	rt.main.park()
}

// schedule is the heart of the scheduler: it picks the next runnable
// thread (following the same sleepers-before-io_waiters precedence the
// source scheduler uses) and hands it the token. self is the thread
// giving up the token (nil for the Run-loop's pseudo-thread); selfCtx
// is the context self should be resumed on, used only when this call
// needs to park self after handing off (the exit path never parks,
// since the caller's goroutine terminates right after).
func (rt *Runtime) schedule(self *Thread, selfCtx context) {
	for {
		next := rt.active.pop()
		if next != nil && next == self {
			return
		}
		if next == nil {
			if rt.sleepers.empty() && rt.ioWaiters.empty() {
				rt.current = nil
				rt.main.resume()
				if self != nil {
					selfCtx.park()
				}
				return
			}
			if !rt.sleepers.empty() {
				rt.wakeSleepers()
				continue
			}
			if !rt.ioWaiters.empty() {
				rt.ioWait()
				continue
			}
		}
		rt.current = next
		rt.met.incContextSwitch()
		next.ctx.resume()
		if self != nil {
			selfCtx.park()
		}
		return
	}
}

// wakeSleepers blocks until the earliest sleeper's deadline or for
// PendTime, whichever is shorter, then moves every sleeper whose
// deadline has passed back onto active. A sleeper is promoted on its
// own absolute deadline, never merely because a tick elapsed.
func (rt *Runtime) wakeSleepers() {
	earliest := rt.sleepers.items[0].wakeAt
	for _, t := range rt.sleepers.items[1:] {
		if t.wakeAt.Before(earliest) {
			earliest = t.wakeAt
		}
	}
	if d := time.Until(earliest); d > 0 {
		if d > PendTime {
			d = PendTime
		}
		time.Sleep(d)
	}
	now := time.Now()
	var still queue
	rt.sleepers.removeAll(func(t *Thread) {
		if !t.wakeAt.After(now) {
			rt.active.append(t)
		} else {
			still.append(t)
		}
	})
	rt.sleepers = still
}

// Yield appends the calling thread to the back of the active queue
// and hands the token to whoever is next.
func (rt *Runtime) Yield(t *Thread) {
	rt.active.append(t)
	rt.schedule(t, t.ctx)
}

// exit marks t done, wakes any joiner, and permanently gives up the
// token; t's goroutine returns immediately afterward.
func (rt *Runtime) exit(t *Thread, val interface{}) {
	t.retval = val
	t.done = true
	rt.met.incThreadExit()
	if t.waiter != nil {
		rt.active.append(t.waiter)
		t.waiter = nil
	}
	rt.schedule(nil, nil)
}

// Join blocks the calling thread until target has exited, then
// returns target's return value. Join must only be called once per
// target.
func (rt *Runtime) Join(self *Thread, target *Thread) interface{} {
	if !target.done {
		target.waiter = self
		rt.schedule(self, self.ctx)
	}
	return target.retval
}

// Usleep parks the calling thread until at least d has elapsed.
func (rt *Runtime) Usleep(self *Thread, d time.Duration) {
	self.wakeAt = time.Now().Add(d)
	rt.sleepers.append(self)
	rt.schedule(self, self.ctx)
}
