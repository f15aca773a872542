package raid

import "github.com/pdesnoyers/sysk/blockdev"

// Mirror is a 2-way mirrored Device: every write goes to both sides,
// every read is satisfied by whichever side is still alive. A side
// that returns blockdev.ErrUnavailable is closed and permanently
// dropped; the mirror itself only fails once both sides are gone.
type Mirror struct {
	sides [2]blockdev.Device
	nblks int
	met   *Metrics
}

var _ blockdev.Device = (*Mirror)(nil)

// NewMirror builds a mirror from two devices that are assumed to
// already hold identical contents; it never writes to either side.
func NewMirror(a, b blockdev.Device) (*Mirror, error) {
	if a == nil || b == nil {
		return nil, ErrDegraded
	}
	if a.NumBlocks() != b.NumBlocks() {
		return nil, blockdev.ErrSize
	}
	return &Mirror{sides: [2]blockdev.Device{a, b}, nblks: a.NumBlocks()}, nil
}

func (m *Mirror) NumBlocks() int { return m.nblks }

func (m *Mirror) ReadAt(first, count int, buf []byte) error {
	for i := 0; i < count; i++ {
		if err := m.readOne(first+i, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) readOne(blk int, buf []byte) error {
	var lastErr error = blockdev.ErrUnavailable
	if d := m.sides[0]; d != nil {
		err := readOneBlock(d, blk, buf)
		if err == blockdev.ErrUnavailable {
			d.Close()
			m.sides[0] = nil
			m.met.incDiskFailure()
		}
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if d := m.sides[1]; d != nil {
		err := readOneBlock(d, blk, buf)
		if err == blockdev.ErrUnavailable {
			d.Close()
			m.sides[1] = nil
			m.met.incDiskFailure()
		}
		lastErr = err
	}
	return lastErr
}

// WriteAt writes to both surviving sides. A failed side is closed and
// dropped; the write succeeds as long as at least one side took it.
func (m *Mirror) WriteAt(first, count int, buf []byte) error {
	for i := 0; i < count; i++ {
		if err := m.writeOne(first+i, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) writeOne(blk int, buf []byte) error {
	ok := false
	var lastErr error = blockdev.ErrUnavailable
	for i, d := range m.sides {
		if d == nil {
			continue
		}
		err := writeOneBlock(d, blk, buf)
		if err == blockdev.ErrUnavailable {
			d.Close()
			m.sides[i] = nil
			m.met.incDiskFailure()
			lastErr = err
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}
		ok = true
	}
	if ok {
		return nil
	}
	return lastErr
}

func (m *Mirror) Close() error {
	for i, d := range m.sides {
		if d != nil {
			d.Close()
			m.sides[i] = nil
		}
	}
	return nil
}

// Replace rebuilds side i (0 or 1) of the mirror from the other side
// onto newdisk, then swaps it in. newdisk must have the same block
// count as the mirror.
func (m *Mirror) Replace(i int, newdisk blockdev.Device) error {
	if i != 0 && i != 1 {
		return ErrDegraded
	}
	other := m.sides[1-i]
	if other == nil {
		return ErrDegraded
	}
	if newdisk.NumBlocks() != m.nblks {
		return blockdev.ErrSize
	}
	buf := make([]byte, blockdev.BlockSize)
	for blk := 0; blk < m.nblks; blk++ {
		if err := readOneBlock(other, blk, buf); err != nil {
			return err
		}
		if err := writeOneBlock(newdisk, blk, buf); err != nil {
			return err
		}
	}
	m.sides[i] = newdisk
	return nil
}
