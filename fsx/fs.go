package fsx

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/pdesnoyers/sysk/blockdev"
)

// Logger is the minimal injectable logging surface every component in
// this module accepts; *log.Logger satisfies it without adaptation.
type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

type nullLogger struct{}

func (nullLogger) Println(v ...interface{})          {}
func (nullLogger) Printf(format string, v ...interface{}) {}

// FatalIOError wraps a block-device-level failure encountered while
// servicing a FileSystem operation. Per spec, any I/O error from the
// underlying device is fatal: FileSystem operations panic with this
// type instead of returning an error code, and only a top-level driver
// (cmd/sysk) is expected to recover from it and exit the process.
type FatalIOError struct {
	Op  string
	Err error
}

func (e *FatalIOError) Error() string {
	return fmt.Sprintf("fsx: fatal device I/O error during %s: %v", e.Op, e.Err)
}

func (e *FatalIOError) Unwrap() error { return e.Err }

func fatal(op string, err error) {
	panic(&FatalIOError{Op: op, Err: err})
}

// Stat mirrors the getattr contract of spec.md §4.3.
type Stat struct {
	Uid, Gid uint32
	Mode     uint32
	Size     uint64
	Atime    time.Time
	Ctime    time.Time
	Mtime    time.Time
	Nlink    uint32
	Blocks   uint64
}

// FileSystem is the mounted, in-memory-shadowed view of a fixed-block
// image. A host that serializes every call into FileSystem (the
// FUSE-equivalent dispatcher named out of scope by spec.md §1) needs
// no further synchronization; FileSystem performs none of its own,
// matching spec.md §5's single-threaded-host assumption.
type FileSystem struct {
	dev blockdev.Device
	log Logger
	met *Metrics

	sb          Superblock
	inodeBitmap *bitmap
	blockBitmap *bitmap
	inodes      []Inode

	mu sync.Mutex // not locked by any FileSystem method; see above
}

// Option configures a FileSystem at Init time.
type Option func(*FileSystem)

// WithLogger injects a Logger; the default is silent.
func WithLogger(l Logger) Option {
	return func(fs *FileSystem) { fs.log = l }
}

// WithMetrics attaches a Metrics recorder; the default is a no-op sink.
func WithMetrics(m *Metrics) Option {
	return func(fs *FileSystem) { fs.met = m }
}

// Init reads the superblock, bitmaps and inode table off dev into
// memory (the fs_init equivalent named in spec.md §6).
func Init(dev blockdev.Device, opts ...Option) (*FileSystem, error) {
	fs := &FileSystem{dev: dev, log: nullLogger{}, met: nullMetrics()}
	for _, o := range opts {
		o(fs)
	}

	sbBlock := make([]byte, BlockSize)
	if err := dev.ReadAt(0, 1, sbBlock); err != nil {
		return nil, err
	}
	fs.sb = decodeSuperblock(sbBlock)
	if fs.sb.NumBlocks == 0 {
		return nil, syscall.EINVAL
	}

	fs.inodeBitmap = newBitmap(int(fs.sb.NumInodes))
	if err := fs.readBitmapRegion(fs.sb.inodeMapStart(), int(fs.sb.InodeMapSz), fs.inodeBitmap); err != nil {
		return nil, err
	}
	fs.blockBitmap = newBitmap(int(fs.sb.NumBlocks))
	if err := fs.readBitmapRegion(fs.sb.blockMapStart(), int(fs.sb.BlockMapSz), fs.blockBitmap); err != nil {
		return nil, err
	}

	fs.inodes = make([]Inode, fs.sb.NumInodes)
	buf := make([]byte, BlockSize)
	for blk := 0; blk < int(fs.sb.InodeRegionSz); blk++ {
		if err := dev.ReadAt(fs.sb.inodeTableStart()+blk, 1, buf); err != nil {
			return nil, err
		}
		for slot := 0; slot < INodesPerBlock; slot++ {
			idx := blk*INodesPerBlock + slot
			if idx >= int(fs.sb.NumInodes) {
				break
			}
			off := slot * inodeSize
			fs.inodes[idx] = decodeInode(buf[off : off+inodeSize])
		}
	}

	fs.log.Printf("fsx: mounted image with %d blocks, %d inodes", fs.sb.NumBlocks, fs.sb.NumInodes)
	return fs, nil
}

func (fs *FileSystem) readBitmapRegion(startBlk, numBlks int, b *bitmap) error {
	buf := make([]byte, BlockSize)
	need := len(b.bytes)
	got := 0
	for i := 0; i < numBlks && got < need; i++ {
		if err := fs.dev.ReadAt(startBlk+i, 1, buf); err != nil {
			return err
		}
		n := copy(b.bytes[got:], buf)
		got += n
	}
	return nil
}

func (fs *FileSystem) writeBitmapRegion(startBlk, numBlks int, b *bitmap) {
	buf := make([]byte, BlockSize)
	off := 0
	for i := 0; i < numBlks; i++ {
		padZero(buf, 0)
		n := copy(buf, b.bytes[off:])
		off += n
		if err := fs.dev.WriteAt(startBlk+i, 1, buf); err != nil {
			fatal("flush bitmap", err)
		}
	}
}

func (fs *FileSystem) flushInodeBitmap() { fs.writeBitmapRegion(fs.sb.inodeMapStart(), int(fs.sb.InodeMapSz), fs.inodeBitmap) }
func (fs *FileSystem) flushBlockBitmap() { fs.writeBitmapRegion(fs.sb.blockMapStart(), int(fs.sb.BlockMapSz), fs.blockBitmap) }

// flushInode rewrites the whole inode-table block containing inode
// ino, after updating fs.inodes[ino] in memory. Write-through always
// happens a full block at a time, matching update_inode in the
// original source.
func (fs *FileSystem) flushInode(ino uint32) {
	blk := int(ino) / INodesPerBlock
	buf := make([]byte, BlockSize)
	for slot := 0; slot < INodesPerBlock; slot++ {
		idx := blk*INodesPerBlock + slot
		if idx >= len(fs.inodes) {
			break
		}
		off := slot * inodeSize
		encodeInode(&fs.inodes[idx], buf[off:off+inodeSize])
	}
	if err := fs.dev.WriteAt(fs.sb.inodeTableStart()+blk, 1, buf); err != nil {
		fatal("flush inode", err)
	}
}

func (fs *FileSystem) readBlock(blk int, buf []byte) {
	if err := fs.dev.ReadAt(blk, 1, buf); err != nil {
		fatal("read block", err)
	}
}

func (fs *FileSystem) writeBlock(blk int, buf []byte) {
	if err := fs.dev.WriteAt(blk, 1, buf); err != nil {
		fatal("write block", err)
	}
}

func (fs *FileSystem) allocInode() (uint32, bool) {
	i := fs.inodeBitmap.firstFree(0, int(fs.sb.NumInodes))
	if i <= 0 {
		return 0, false
	}
	fs.inodeBitmap.set(i)
	fs.flushInodeBitmap()
	fs.met.incInodeAlloc()
	return uint32(i), true
}

func (fs *FileSystem) freeInode(ino uint32) {
	fs.inodeBitmap.clear(int(ino))
	fs.flushInodeBitmap()
	fs.inodes[ino] = Inode{}
	fs.flushInode(ino)
	fs.met.incInodeFree()
}

// allocBlock never returns block 0: that block is always the
// superblock, reserved permanently in the block bitmap by Mkfs, and 0
// doubles as the "no block allocated yet" sentinel in an inode's
// pointer fields (Direct, Indir1, Indir2).
func (fs *FileSystem) allocBlock() (uint32, bool) {
	i := fs.blockBitmap.firstFree(1, int(fs.sb.NumBlocks))
	if i <= 0 {
		return 0, false
	}
	fs.blockBitmap.set(i)
	fs.flushBlockBitmap()
	fs.met.incBlockAlloc()
	return uint32(i), true
}

func (fs *FileSystem) freeBlock(b uint32) {
	if b == 0 {
		return
	}
	fs.blockBitmap.clear(int(b))
	fs.flushBlockBitmap()
	fs.met.incBlockFree()
}

// statOf converts an in-memory inode into a Stat, per spec.md's
// getattr contract (atime aliases mtime, nlink is always 1).
func statOf(ino *Inode) Stat {
	return Stat{
		Uid:    ino.Uid,
		Gid:    ino.Gid,
		Mode:   ino.Mode,
		Size:   ino.Size,
		Atime:  time.Unix(0, ino.Mtime),
		Ctime:  time.Unix(0, ino.Ctime),
		Mtime:  time.Unix(0, ino.Mtime),
		Nlink:  1,
		Blocks: (ino.Size + BlockSize - 1) / BlockSize,
	}
}
