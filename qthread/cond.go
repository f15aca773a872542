package qthread

// Cond is a cooperative condition variable, always used together with
// a Mutex: Wait atomically (with respect to the single-token
// discipline) releases the mutex and parks the caller, then
// re-acquires the mutex before returning.
type Cond struct {
	rt      *Runtime
	waiters queue
}

// NewCond creates a condition variable bound to rt.
func NewCond(rt *Runtime) *Cond {
	return &Cond{rt: rt}
}

// Wait releases m, parks self on c's wait queue, and re-acquires m
// before returning. The caller must hold m.
func (c *Cond) Wait(self *Thread, m *Mutex) {
	c.waiters.append(self)
	m.Unlock()
	c.rt.schedule(self, self.ctx)
	m.Lock(self)
}

// Signal wakes at most one waiter, if any are parked.
func (c *Cond) Signal() {
	if !c.waiters.empty() {
		c.rt.active.append(c.waiters.pop())
	}
}

// Broadcast wakes every waiter currently parked on c.
func (c *Cond) Broadcast() {
	c.waiters.removeAll(func(t *Thread) {
		c.rt.active.append(t)
	})
}
