package raid

import "github.com/pdesnoyers/sysk/blockdev"

const noFailure = -1

// Stripe4 is an N-1-data-plus-parity striped (RAID-4) Device: the
// last member holds the XOR parity of the other N-1 at the same
// stripe offset. A single failed member is tolerated by reconstructing
// its data from the survivors on every access; a second failure while
// already degraded is fatal.
type Stripe4 struct {
	disks      []blockdev.Device
	unit       int
	nblks      int
	childSize  int
	lastFailed int
	met        *Metrics
}

var _ blockdev.Device = (*Stripe4)(nil)

// NewStripe4 builds a RAID-4 volume from disks, using disks[N-1] as
// the parity member. Callers must pass disks whose contents already
// satisfy the parity invariant; NewStripe4 never writes to them.
func NewStripe4(disks []blockdev.Device, unit int) (*Stripe4, error) {
	if len(disks) < 3 {
		return nil, ErrTooFewMembers
	}
	if unit <= 0 {
		return nil, ErrDegraded
	}
	size, err := sameSize(disks)
	if err != nil {
		return nil, err
	}
	cp := make([]blockdev.Device, len(disks))
	copy(cp, disks)
	n := len(disks)
	nblks := size / unit * unit * (n - 1)
	return &Stripe4{disks: cp, unit: unit, nblks: nblks, childSize: size, lastFailed: noFailure}, nil
}

func (s *Stripe4) NumBlocks() int { return s.nblks }

func (s *Stripe4) ndataDisks() int { return len(s.disks) - 1 }

func (s *Stripe4) locate(i int) (nthDisk, blkInDisk int) {
	nd := s.ndataDisks()
	nthDisk = (i / s.unit) % nd
	stripe := i / s.unit / nd
	blkInDisk = stripe*s.unit + i%s.unit
	return
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// recover reconstructs blkInDisk by XORing every surviving member
// (skipping lastFailed) at that same offset.
func (s *Stripe4) recover(blkInDisk int, buf []byte) error {
	tmp := make([]byte, blockdev.BlockSize)
	first := true
	for i, d := range s.disks {
		if i == s.lastFailed || d == nil {
			continue
		}
		if first {
			if err := readOneBlock(d, blkInDisk, buf); err != nil {
				return err
			}
			first = false
			continue
		}
		if err := readOneBlock(d, blkInDisk, tmp); err != nil {
			return err
		}
		xorInto(buf, tmp)
	}
	return nil
}

// readChecked reads blkInDisk from disk index nth, recovering from
// parity if it has just failed, or failing hard if a second member is
// already gone.
func (s *Stripe4) readChecked(nth, blkInDisk int, buf []byte) error {
	d := s.disks[nth]
	if d == nil {
		return blockdev.ErrUnavailable
	}
	err := readOneBlock(d, blkInDisk, buf)
	if err != blockdev.ErrUnavailable {
		return err
	}
	if s.lastFailed != noFailure && s.lastFailed != nth {
		d.Close()
		s.disks[nth] = nil
		s.met.incDiskFailure()
		return blockdev.ErrUnavailable
	}
	if s.lastFailed != nth {
		s.lastFailed = nth
		s.met.incDiskFailure()
		s.met.incDegradedTransition()
	}
	return s.recover(blkInDisk, buf)
}

func (s *Stripe4) ReadAt(first, count int, buf []byte) error {
	if first < 0 || count < 0 || first+count > s.nblks {
		return blockdev.ErrOutOfRange
	}
	for i := 0; i < count; i++ {
		nth, blkInDisk := s.locate(first + i)
		if err := s.readChecked(nth, blkInDisk, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

// writeChecked writes buf to disk index nth at blkInDisk. A first
// failure is absorbed (the volume drops into degraded mode); a second
// failure is fatal.
func (s *Stripe4) writeChecked(nth, blkInDisk int, buf []byte) error {
	d := s.disks[nth]
	if d == nil {
		return blockdev.ErrUnavailable
	}
	err := writeOneBlock(d, blkInDisk, buf)
	if err != blockdev.ErrUnavailable {
		return err
	}
	if s.lastFailed != noFailure && s.lastFailed != nth {
		d.Close()
		s.disks[nth] = nil
		s.met.incDiskFailure()
		return blockdev.ErrUnavailable
	}
	if s.lastFailed != nth {
		s.lastFailed = nth
		s.met.incDiskFailure()
		s.met.incDegradedTransition()
	}
	return blockdev.ErrUnavailable
}

// writeOne updates one data block and recomputes parity in place. A
// write succeeds as long as either the data member or the parity
// member took it: one surviving side is enough to keep the stripe set
// reconstructible (the corrected semantics; see the raid package's
// design notes for the source behavior this replaces).
func (s *Stripe4) writeOne(n int, buf []byte) error {
	nth, blkInDisk := s.locate(n)
	parityIdx := len(s.disks) - 1

	oldData := make([]byte, blockdev.BlockSize)
	if err := s.readChecked(nth, blkInDisk, oldData); err != nil {
		return err
	}
	oldParity := make([]byte, blockdev.BlockSize)
	if err := s.readChecked(parityIdx, blkInDisk, oldParity); err != nil {
		return err
	}

	newParity := make([]byte, blockdev.BlockSize)
	copy(newParity, oldParity)
	xorInto(newParity, oldData)
	xorInto(newParity, buf)

	dataErr := s.writeChecked(nth, blkInDisk, buf)
	parityErr := s.writeChecked(parityIdx, blkInDisk, newParity)
	if dataErr == nil || parityErr == nil {
		return nil
	}
	return dataErr
}

func (s *Stripe4) WriteAt(first, count int, buf []byte) error {
	if first < 0 || count < 0 || first+count > s.nblks {
		return blockdev.ErrOutOfRange
	}
	for i := 0; i < count; i++ {
		if err := s.writeOne(first+i, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stripe4) Close() error {
	for i, d := range s.disks {
		if d != nil {
			d.Close()
			s.disks[i] = nil
		}
	}
	return nil
}

// Replace rebuilds member i from the survivors onto newdisk and swaps
// it in, clearing degraded state.
func (s *Stripe4) Replace(i int, newdisk blockdev.Device) error {
	if i < 0 || i >= len(s.disks) {
		return ErrDegraded
	}
	if newdisk.NumBlocks() != s.childSize {
		return blockdev.ErrSize
	}
	blkPerDisk := s.nblks / s.ndataDisks()
	save := s.lastFailed
	s.lastFailed = i
	buf := make([]byte, blockdev.BlockSize)
	for blk := 0; blk < blkPerDisk; blk++ {
		if err := s.recover(blk, buf); err != nil {
			s.lastFailed = save
			return err
		}
		if err := writeOneBlock(newdisk, blk, buf); err != nil {
			s.lastFailed = save
			return err
		}
	}
	s.disks[i] = newdisk
	s.lastFailed = noFailure
	return nil
}
