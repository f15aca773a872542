package fsx

import (
	"syscall"

	"github.com/pdesnoyers/sysk/blockdev"
)

// MkfsOptions configures Mkfs. The original source only ever exercised
// a pre-formatted image; this formatter is a supplemented feature so
// the file system can be built and mounted end to end from an
// arbitrary block device.
type MkfsOptions struct {
	// NumInodes is the fixed size of the inode table. Zero selects a
	// default proportional to the device's block count.
	NumInodes int
}

const defaultInodeRatio = 4 // one inode per 4 device blocks

// Mkfs formats dev with a fresh superblock, inode and block bitmaps,
// an empty inode table, and an empty root directory. The device must
// already report its final NumBlocks(); Mkfs does not resize it.
func Mkfs(dev blockdev.Device, opts MkfsOptions) error {
	total := dev.NumBlocks()
	if total < 4 {
		return syscall.EINVAL
	}

	numInodes := opts.NumInodes
	if numInodes <= 0 {
		numInodes = total / defaultInodeRatio
	}
	if numInodes < 2 {
		numInodes = 2
	}

	inodeMapSz := blocksFor((numInodes + 7) / 8)
	inodeRegionSz := blocksFor(numInodes * inodeSize)

	// Iterate block-map sizing to convergence: the block bitmap must
	// cover the data region, whose size depends on the block-map size
	// itself. Two passes always converge since each block of bitmap
	// covers BlockSize*8 data blocks.
	blockMapSz := 1
	for i := 0; i < 4; i++ {
		dataBlocks := total - (1 + inodeMapSz + blockMapSz + inodeRegionSz)
		if dataBlocks < 0 {
			dataBlocks = 0
		}
		need := blocksFor((dataBlocks + 7) / 8)
		if need == blockMapSz {
			break
		}
		blockMapSz = need
	}

	sb := Superblock{
		NumBlocks:     uint32(total),
		InodeMapSz:    uint32(inodeMapSz),
		BlockMapSz:    uint32(blockMapSz),
		InodeRegionSz: uint32(inodeRegionSz),
		RootInode:     rootInodeNo,
		NumInodes:     uint32(numInodes),
	}
	if int(sb.RootInode) >= numInodes {
		return syscall.EINVAL
	}

	sbBlock := make([]byte, BlockSize)
	encodeSuperblock(&sb, sbBlock)
	if err := dev.WriteAt(0, 1, sbBlock); err != nil {
		return err
	}

	zero := make([]byte, BlockSize)
	for blk := sb.inodeMapStart(); blk < sb.dataStart(); blk++ {
		if err := dev.WriteAt(blk, 1, zero); err != nil {
			return err
		}
	}

	fs := &FileSystem{
		dev:         dev,
		log:         nullLogger{},
		met:         nullMetrics(),
		sb:          sb,
		inodeBitmap: newBitmap(numInodes),
		blockBitmap: newBitmap(total),
		inodes:      make([]Inode, numInodes),
	}
	// Inode 0 is never allocated (mirrors the convention that a zero
	// inode number means "no inode").
	fs.inodeBitmap.set(0)
	fs.inodeBitmap.set(int(rootInodeNo))
	fs.flushInodeBitmap()

	// The superblock, both bitmaps, and the inode table occupy blocks
	// [0, dataStart()) and are never available for allocation; mark
	// them used before handing out the first data block, or the very
	// first allocBlock call would hand back block 1, the inode bitmap
	// (allocBlock itself never returns block 0).
	for b := 0; b < sb.dataStart(); b++ {
		fs.blockBitmap.set(b)
	}
	fs.flushBlockBitmap()

	root := &fs.inodes[rootInodeNo]
	root.Mode = modeDir | 0755
	root.Uid, root.Gid = 0, 0
	fs.flushInode(rootInodeNo)

	return nil
}

func blocksFor(bytesNeeded int) int {
	if bytesNeeded <= 0 {
		return 1
	}
	return (bytesNeeded + BlockSize - 1) / BlockSize
}
