package raid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdesnoyers/sysk/blockdev"
)

func fillBlocks(n int, seed byte) []byte {
	buf := make([]byte, n*blockdev.BlockSize)
	for i := range buf {
		buf[i] = seed + byte(i)
	}
	return buf
}

func TestMirrorRoundTrip(t *testing.T) {
	a := blockdev.NewMemDevice(10)
	b := blockdev.NewMemDevice(10)
	m, err := NewMirror(a, b)
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	want := fillBlocks(6, 1)
	if err := m.WriteAt(2, 6, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, 6*blockdev.BlockSize)
	if err := m.ReadAt(2, 6, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	require.Equal(t, want, got, "round trip mismatch")
}

// TestMirrorReplace mirrors spec.md §8 scenario 3: write B, fail disk
// 0, read B back, replace disk 0, fail disk 1, read B back again.
func TestMirrorReplace(t *testing.T) {
	a := blockdev.NewMemDevice(10)
	b := blockdev.NewMemDevice(10)
	m, err := NewMirror(a, b)
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	want := fillBlocks(6, 7)
	if err := m.WriteAt(0, 6, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	a.Fail()
	got := make([]byte, 6*blockdev.BlockSize)
	if err := m.ReadAt(0, 6, got); err != nil {
		t.Fatalf("ReadAt after fail: %v", err)
	}
	require.Equal(t, want, got, "read after disk 0 fail mismatch")

	fresh := blockdev.NewMemDevice(10)
	if err := m.Replace(0, fresh); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	b.Fail()
	got2 := make([]byte, 6*blockdev.BlockSize)
	if err := m.ReadAt(0, 6, got2); err != nil {
		t.Fatalf("ReadAt after disk 1 fail: %v", err)
	}
	require.Equal(t, want, got2, "read after replace+disk1 fail mismatch")
}

func TestMirrorBothFailedIsTerminal(t *testing.T) {
	a := blockdev.NewMemDevice(4)
	b := blockdev.NewMemDevice(4)
	m, _ := NewMirror(a, b)
	a.Fail()
	b.Fail()
	buf := make([]byte, blockdev.BlockSize)
	if err := m.ReadAt(0, 1, buf); err != blockdev.ErrUnavailable {
		t.Fatalf("ReadAt = %v, want ErrUnavailable", err)
	}
}

func TestMirrorSizeMismatchRejected(t *testing.T) {
	a := blockdev.NewMemDevice(4)
	b := blockdev.NewMemDevice(5)
	if _, err := NewMirror(a, b); err != blockdev.ErrSize {
		t.Fatalf("NewMirror = %v, want ErrSize", err)
	}
}
