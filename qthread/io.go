package qthread

import (
	"golang.org/x/sys/unix"
)

// fdSetBit and fdIsSet replicate the FD_SET/FD_ISSET macros: unix.FdSet
// carries no helper methods of its own, just the raw Bits word array.
const fdSetWordBits = 64

func fdSetBit(set *unix.FdSet, fd int) {
	set.Bits[fd/fdSetWordBits] |= 1 << uint(fd%fdSetWordBits)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/fdSetWordBits]&(1<<uint(fd%fdSetWordBits)) != 0
}

// ioWait blocks (via select(2)) until one of the fds in ioWaiters is
// ready, or PendTime elapses, then moves every ready thread back onto
// active. Threads that are still not ready stay on ioWaiters in their
// original order.
func (rt *Runtime) ioWait() {
	var rfds, wfds unix.FdSet
	maxfd := 0
	for _, t := range rt.ioWaiters.items {
		switch t.status {
		case ioRead:
			fdSetBit(&rfds, t.fd)
		case ioWrite:
			fdSetBit(&wfds, t.fd)
		}
		if t.fd > maxfd {
			maxfd = t.fd
		}
	}

	tv := unix.NsecToTimeval(PendTime.Nanoseconds())
	_, _ = unix.Select(maxfd+1, &rfds, &wfds, nil, &tv)

	var still queue
	rt.ioWaiters.removeAll(func(t *Thread) {
		ready := (t.status == ioRead && fdIsSet(&rfds, t.fd)) ||
			(t.status == ioWrite && fdIsSet(&wfds, t.fd))
		if ready {
			rt.active.append(t)
		} else {
			still.append(t)
		}
	})
	rt.ioWaiters = still
}

func setNonblocking(fd int) {
	_ = unix.SetNonblock(fd, true)
}

// Read performs a non-blocking read on fd, parking self on ioWaiters
// and yielding the token whenever the read would block.
func (rt *Runtime) Read(self *Thread, fd int, buf []byte) (int, error) {
	setNonblocking(fd)
	self.status = ioRead
	self.fd = fd
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EAGAIN {
			rt.ioWaiters.append(self)
			rt.schedule(self, self.ctx)
			continue
		}
		return n, err
	}
}

// Write performs a non-blocking write on fd, parking self on
// ioWaiters whenever the write would block.
func (rt *Runtime) Write(self *Thread, fd int, buf []byte) (int, error) {
	setNonblocking(fd)
	self.status = ioWrite
	self.fd = fd
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EAGAIN {
			rt.ioWaiters.append(self)
			rt.schedule(self, self.ctx)
			continue
		}
		return n, err
	}
}

// Accept performs a non-blocking accept on a listening socket fd;
// accept readiness counts as read readiness for the select call.
func (rt *Runtime) Accept(self *Thread, fd int) (int, unix.Sockaddr, error) {
	setNonblocking(fd)
	self.status = ioRead
	self.fd = fd
	for {
		nfd, sa, err := unix.Accept(fd)
		if err == unix.EAGAIN {
			rt.ioWaiters.append(self)
			rt.schedule(self, self.ctx)
			continue
		}
		return nfd, sa, err
	}
}
