package raid

import (
	"bytes"
	"testing"

	"github.com/pdesnoyers/sysk/blockdev"
)

// TestStripe0Mapping mirrors spec.md §8 scenario 4: N=3, unit=2, write
// blocks [0..9] and check that each pair lands on the expected disk at
// the expected offset.
func TestStripe0Mapping(t *testing.T) {
	disks := []blockdev.Device{
		blockdev.NewMemDevice(8),
		blockdev.NewMemDevice(8),
		blockdev.NewMemDevice(8),
	}
	s, err := NewStripe0(disks, 2)
	if err != nil {
		t.Fatalf("NewStripe0: %v", err)
	}
	data := fillBlocks(10, 3)
	if err := s.WriteAt(0, 10, data); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	check := func(disk, blkInDisk, logical int) {
		want := data[logical*blockdev.BlockSize : (logical+1)*blockdev.BlockSize]
		got := make([]byte, blockdev.BlockSize)
		if err := disks[disk].ReadAt(blkInDisk, 1, got); err != nil {
			t.Fatalf("disk %d block %d read: %v", disk, blkInDisk, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("disk %d block %d: got %v, want data for logical block %d", disk, blkInDisk, got[:4], logical)
		}
	}
	check(0, 0, 0)
	check(0, 1, 1)
	check(1, 0, 2)
	check(1, 1, 3)
	check(2, 0, 4)
	check(2, 1, 5)
	check(0, 2, 6)
	check(0, 3, 7)
	check(1, 2, 8)
	check(1, 3, 9)
}

func TestStripe0RoundTrip(t *testing.T) {
	disks := []blockdev.Device{
		blockdev.NewMemDevice(8),
		blockdev.NewMemDevice(8),
		blockdev.NewMemDevice(8),
	}
	s, err := NewStripe0(disks, 2)
	if err != nil {
		t.Fatalf("NewStripe0: %v", err)
	}
	want := fillBlocks(10, 9)
	if err := s.WriteAt(0, 10, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, 10*blockdev.BlockSize)
	if err := s.ReadAt(0, 10, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch")
	}
}

// TestStripe0TerminalOnFailure mirrors spec.md §8: after any single
// disk fails, subsequent reads/writes that touch it return
// Unavailable.
func TestStripe0TerminalOnFailure(t *testing.T) {
	d0 := blockdev.NewMemDevice(8)
	disks := []blockdev.Device{d0, blockdev.NewMemDevice(8), blockdev.NewMemDevice(8)}
	s, _ := NewStripe0(disks, 2)

	want := fillBlocks(10, 1)
	if err := s.WriteAt(0, 10, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	d0.Fail()
	buf := make([]byte, blockdev.BlockSize)
	if err := s.ReadAt(0, 1, buf); err != blockdev.ErrUnavailable {
		t.Fatalf("ReadAt after fail = %v, want ErrUnavailable", err)
	}
	if err := s.WriteAt(0, 1, buf); err != blockdev.ErrUnavailable {
		t.Fatalf("WriteAt after fail = %v, want ErrUnavailable", err)
	}
}
