// Package fsx implements a fixed-block, FUSE-style file system: a
// superblock, inode and block bitmaps, a fixed-size inode table with
// direct/indirect/double-indirect block maps, and single-block
// directories. It is exposed as a path-based FileSystem operations
// table rather than a raw kernel binding — the host that would
// dispatch these calls from an actual mount is out of scope.
package fsx

import "github.com/pdesnoyers/sysk/blockdev"

// BlockSize is the fixed unit of on-disk I/O, shared with blockdev.
const BlockSize = blockdev.BlockSize

// Layout constants, binary-compatible with any implementation that
// respects the same superblock, bitmap width and inode record.
const (
	// NDirect is the number of direct block pointers in an inode.
	NDirect = 12
	// MaxNameLen is the maximum file name length, excluding the NUL
	// terminator (27 bytes + NUL, per spec).
	MaxNameLen = 27

	// inodeSize is the binary.Write-encoded size of Inode: 3 uint32 +
	// 2 int64 + 1 uint64 + 12 uint32 (direct) + 2 uint32 = 92 bytes.
	inodeSize = 92
	// direntSize is the binary.Write-encoded size of DirEntry: 2
	// bools + 1 uint32 + a 28-byte name = 34 bytes.
	direntSize  = 34
	ptrsPerBlk  = BlockSize / 4
	rootInodeNo = 1
)

// INodesPerBlock is the number of on-disk inode records packed into
// one block.
const INodesPerBlock = BlockSize / inodeSize

// NEntries is the fixed per-directory capacity: a directory's single
// data block holds this many DirEntry records.
const NEntries = BlockSize / direntSize

// Superblock is block 0 of the image.
type Superblock struct {
	NumBlocks     uint32
	InodeMapSz    uint32 // in blocks
	BlockMapSz    uint32 // in blocks
	InodeRegionSz uint32 // in blocks
	RootInode     uint32
	NumInodes     uint32
}

func (sb *Superblock) inodeMapStart() int  { return 1 }
func (sb *Superblock) blockMapStart() int  { return 1 + int(sb.InodeMapSz) }
func (sb *Superblock) inodeTableStart() int {
	return sb.blockMapStart() + int(sb.BlockMapSz)
}
func (sb *Superblock) dataStart() int {
	return sb.inodeTableStart() + int(sb.InodeRegionSz)
}

// Inode is one fixed-size on-disk inode record.
type Inode struct {
	Uid, Gid uint32
	Mode     uint32
	Ctime    int64
	Mtime    int64
	Size     uint64
	Direct   [NDirect]uint32
	Indir1   uint32
	Indir2   uint32
}

const (
	modeTypeMask = 0170000
	modeDir      = 0040000
	modeRegular  = 0100000
)

func (ino *Inode) isDir() bool     { return ino.Mode&modeTypeMask == modeDir }
func (ino *Inode) isRegular() bool { return ino.Mode&modeTypeMask == modeRegular }
func (ino *Inode) free() bool      { return ino.Mode == 0 }

// DirEntry is one fixed-size slot in a directory's single data block.
type DirEntry struct {
	Valid bool
	IsDir bool
	Inode uint32
	Name  [MaxNameLen + 1]byte
}

func (e *DirEntry) name() string {
	n := 0
	for n < len(e.Name) && e.Name[n] != 0 {
		n++
	}
	return string(e.Name[:n])
}

func (e *DirEntry) setName(s string) {
	e.Name = [MaxNameLen + 1]byte{}
	copy(e.Name[:], s)
}
