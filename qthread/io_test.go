package qthread

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// TestReadWriteOverPipe exercises the non-blocking read/write path
// over a connected unix socket pair used as a pipe: a reader thread
// blocks on the empty read end until ioWait's select(2) call
// reports it readable, at which point a writer thread (woken after a
// short sleep) has put data there.
func TestReadWriteOverPipe(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	r, w := fds[0], fds[1]
	defer unix.Close(r)
	defer unix.Close(w)

	rt := NewRuntime()
	got := make([]byte, 5)
	var n int
	var readErr error

	rt.Go(func(self *Thread) interface{} {
		n, readErr = rt.Read(self, r, got)
		return nil
	})
	rt.Go(func(self *Thread) interface{} {
		rt.Usleep(self, 5*time.Millisecond)
		if _, err := unix.Write(w, []byte("hello")); err != nil {
			t.Errorf("write: %v", err)
		}
		return nil
	})
	rt.Run()

	if readErr != nil {
		t.Fatalf("Read returned error: %v", readErr)
	}
	if n != 5 || string(got) != "hello" {
		t.Fatalf("got %q (n=%d), want %q", got[:n], n, "hello")
	}
}
