package fsx

import "syscall"

// readDirBlock loads the fixed NEntries-capacity directory block for
// ino. A freshly-created directory has no data block yet; for it this
// returns NEntries invalid entries, and writeDirBlock allocates the
// block on first write.
func (fs *FileSystem) readDirBlock(ino *Inode) []DirEntry {
	entries := make([]DirEntry, NEntries)
	if ino.Direct[0] == 0 {
		return entries
	}
	buf := make([]byte, BlockSize)
	fs.readBlock(int(ino.Direct[0]), buf)
	for i := range entries {
		off := i * direntSize
		entries[i] = decodeDirEntry(buf[off : off+direntSize])
	}
	return entries
}

func (fs *FileSystem) writeDirBlock(ino *Inode, entries []DirEntry) {
	if ino.Direct[0] == 0 {
		b, ok := fs.allocBlock()
		if !ok {
			fatal("write dir block", syscall.ENOSPC)
		}
		ino.Direct[0] = b
	}
	buf := make([]byte, BlockSize)
	for i, e := range entries {
		off := i * direntSize
		ee := e
		encodeDirEntry(&ee, buf[off:off+direntSize])
	}
	fs.writeBlock(int(ino.Direct[0]), buf)
}

func (fs *FileSystem) findInDir(dirIno *Inode, name string) (entryIdx int, childIno uint32, isDir bool, found bool) {
	entries := fs.readDirBlock(dirIno)
	for i, e := range entries {
		if e.Valid && e.name() == name {
			return i, e.Inode, e.IsDir, true
		}
	}
	return -1, 0, false, false
}

// addDirEntry inserts a new (name, inode) pair into dirIno's single
// data block. Returns ENOSPC if every one of the fixed NEntries slots
// is already in use.
func (fs *FileSystem) addDirEntry(dirIno *Inode, name string, childIno uint32, isDir bool) error {
	entries := fs.readDirBlock(dirIno)
	slot := -1
	for i, e := range entries {
		if !e.Valid {
			slot = i
			break
		}
	}
	if slot < 0 {
		return syscall.ENOSPC
	}
	entries[slot] = DirEntry{Valid: true, IsDir: isDir, Inode: childIno}
	entries[slot].setName(name)
	fs.writeDirBlock(dirIno, entries)
	dirIno.Size = uint64(countValid(entries)) * direntSize
	return nil
}

// renameDirEntry changes the name of an existing entry in place,
// keeping its inode number and type untouched. Used only for
// same-directory renames; the caller has already verified oldName
// exists and newName does not.
func (fs *FileSystem) renameDirEntry(dirIno *Inode, oldName, newName string) bool {
	entries := fs.readDirBlock(dirIno)
	for i, e := range entries {
		if e.Valid && e.name() == oldName {
			entries[i].setName(newName)
			fs.writeDirBlock(dirIno, entries)
			return true
		}
	}
	return false
}

func (fs *FileSystem) removeDirEntry(dirIno *Inode, name string) bool {
	entries := fs.readDirBlock(dirIno)
	for i, e := range entries {
		if e.Valid && e.name() == name {
			entries[i] = DirEntry{}
			fs.writeDirBlock(dirIno, entries)
			dirIno.Size = uint64(countValid(entries)) * direntSize
			return true
		}
	}
	return false
}

// dirIsEmpty reports whether dirIno holds zero entries. Directories
// store no synthetic "." or ".." entries, so any valid entry at all
// means the directory is non-empty.
func (fs *FileSystem) dirIsEmpty(dirIno *Inode) bool {
	for _, e := range fs.readDirBlock(dirIno) {
		if e.Valid {
			return false
		}
	}
	return true
}

func countValid(entries []DirEntry) int {
	n := 0
	for _, e := range entries {
		if e.Valid {
			n++
		}
	}
	return n
}
