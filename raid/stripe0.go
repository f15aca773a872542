package raid

import "github.com/pdesnoyers/sysk/blockdev"

// Stripe0 is an N-way striped (RAID-0) Device: block i lives on
// disk (i/unit) % N, at offset (i/unit/N)*unit + i%unit within that
// disk. There is no redundancy: once any member fails, the stripe set
// is permanently unavailable.
type Stripe0 struct {
	disks []blockdev.Device
	unit  int
	nblks int
	met   *Metrics
}

var _ blockdev.Device = (*Stripe0)(nil)

// NewStripe0 builds a RAID-0 volume striping unit-sized chunks across
// disks. All member disks must report the same block count; the
// volume's capacity is truncated down to a whole number of stripe
// sets across all disks.
func NewStripe0(disks []blockdev.Device, unit int) (*Stripe0, error) {
	if len(disks) < 2 {
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
	nblks := size / unit * unit * len(disks)
	return &Stripe0{disks: cp, unit: unit, nblks: nblks}, nil
}

func (s *Stripe0) NumBlocks() int { return s.nblks }

func (s *Stripe0) locate(i int) (nthDisk, blkInDisk int) {
	ndisks := len(s.disks)
	nthDisk = (i / s.unit) % ndisks
	stripe := i / s.unit / ndisks
	blkInDisk = stripe*s.unit + i%s.unit
	return
}

func (s *Stripe0) ReadAt(first, count int, buf []byte) error {
	if err := s.checkRange(first, count); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if err := s.readOne(first+i, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stripe0) readOne(n int, buf []byte) error {
	nthDisk, blkInDisk := s.locate(n)
	d := s.disks[nthDisk]
	if d == nil {
		return blockdev.ErrUnavailable
	}
	err := readOneBlock(d, blkInDisk, buf)
	if err == blockdev.ErrUnavailable {
		d.Close()
		s.disks[nthDisk] = nil
		s.met.incDiskFailure()
	}
	return err
}

func (s *Stripe0) WriteAt(first, count int, buf []byte) error {
	if err := s.checkRange(first, count); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if err := s.writeOne(first+i, buf[i*blockdev.BlockSize:(i+1)*blockdev.BlockSize]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stripe0) writeOne(n int, buf []byte) error {
	nthDisk, blkInDisk := s.locate(n)
	d := s.disks[nthDisk]
	if d == nil {
		return blockdev.ErrUnavailable
	}
	err := writeOneBlock(d, blkInDisk, buf)
	if err == blockdev.ErrUnavailable {
		d.Close()
		s.disks[nthDisk] = nil
		s.met.incDiskFailure()
	}
	return err
}

func (s *Stripe0) checkRange(first, count int) error {
	if first < 0 || count < 0 || first+count > s.nblks {
		return blockdev.ErrOutOfRange
	}
	return nil
}

func (s *Stripe0) Close() error {
	for i, d := range s.disks {
		if d != nil {
			d.Close()
			s.disks[i] = nil
		}
	}
	return nil
}
