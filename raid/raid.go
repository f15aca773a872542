// Package raid implements stackable block devices over blockdev.Device:
// a 2-way mirror, N-way striping (RAID-0) and N-1-data-plus-parity
// striping (RAID-4).
package raid

import (
	"errors"

	"github.com/pdesnoyers/sysk/blockdev"
)

var (
	// ErrDegraded is returned when an operation needs more surviving
	// members than are currently present.
	ErrDegraded = errors.New("raid: too many failed members")
	// ErrTooFewMembers is returned by the Stripe0/Stripe4 constructors
	// given fewer than the minimum number of members.
	ErrTooFewMembers = errors.New("raid: too few member devices")
)

func sameSize(disks []blockdev.Device) (int, error) {
	size := disks[0].NumBlocks()
	for _, d := range disks[1:] {
		if d.NumBlocks() != size {
			return 0, blockdev.ErrSize
		}
	}
	return size, nil
}

// readOneBlock/writeOneBlock are the single-block primitives every
// level's child-address translation is expressed in terms of; count is
// always 1 against the child, matching the original source's
// block-at-a-time child access pattern.
func readOneBlock(d blockdev.Device, blk int, buf []byte) error {
	return d.ReadAt(blk, 1, buf)
}

func writeOneBlock(d blockdev.Device, blk int, buf []byte) error {
	return d.WriteAt(blk, 1, buf)
}
