package blockdev

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// FileDevice is a Device backed by a regular host file, addressed with
// positioned reads and writes (Pread/Pwrite) so that concurrent
// callers don't need to serialize on a shared file offset.
type FileDevice struct {
	mu        sync.RWMutex
	f         *os.File
	numBlocks int
	closed    bool
}

var _ Device = (*FileDevice)(nil)

// OpenFileDevice opens (or creates, if create is true) path as a block
// device of numBlocks blocks. When creating, the file is truncated to
// exactly numBlocks*BlockSize bytes.
func OpenFileDevice(path string, numBlocks int, create bool) (*FileDevice, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	size := int64(numBlocks) * BlockSize
	if create {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if fi.Size() < size {
			f.Close()
			return nil, ErrOutOfRange
		}
	}
	return &FileDevice{f: f, numBlocks: numBlocks}, nil
}

func (d *FileDevice) NumBlocks() int {
	return d.numBlocks
}

func (d *FileDevice) ReadAt(first, count int, buf []byte) error {
	if err := checkBuf(count, buf); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrUnavailable
	}
	if err := checkRange(first, count, d.numBlocks); err != nil {
		return err
	}
	off := int64(first) * BlockSize
	want := count * BlockSize
	got := 0
	for got < want {
		nr, err := unix.Pread(int(d.f.Fd()), buf[got:want], off+int64(got))
		if err != nil {
			return err
		}
		if nr == 0 {
			break
		}
		got += nr
	}
	return nil
}

func (d *FileDevice) WriteAt(first, count int, buf []byte) error {
	if err := checkBuf(count, buf); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrUnavailable
	}
	if err := checkRange(first, count, d.numBlocks); err != nil {
		return err
	}
	off := int64(first) * BlockSize
	want := count * BlockSize
	put := 0
	for put < want {
		nw, err := unix.Pwrite(int(d.f.Fd()), buf[put:want], off+int64(put))
		if err != nil {
			return err
		}
		put += nw
	}
	return nil
}

func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.f.Close()
}
