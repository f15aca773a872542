package qthread

// Mutex is a cooperative mutex: Lock never spins, it parks the
// calling thread on the mutex's own wait queue and hands the token
// back to the scheduler.
type Mutex struct {
	rt      *Runtime
	locked  bool
	waiters queue
}

// NewMutex creates an unlocked mutex bound to rt.
func NewMutex(rt *Runtime) *Mutex {
	return &Mutex{rt: rt}
}

// Lock acquires m, parking self if it is already held.
func (m *Mutex) Lock(self *Thread) {
	if !m.locked {
		m.locked = true
		return
	}
	m.waiters.append(self)
	m.rt.schedule(self, self.ctx)
}

// Unlock releases m. If another thread is waiting, ownership is
// handed to the head waiter directly (the mutex stays locked and that
// waiter is moved to the active queue) rather than being dropped and
// re-contended; the caller keeps the token.
func (m *Mutex) Unlock() {
	if m.waiters.empty() {
		m.locked = false
		return
	}
	m.rt.active.append(m.waiters.pop())
}
