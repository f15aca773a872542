package fsx

import (
	"strings"
	"syscall"
)

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// resolve walks path from the root inode, returning the inode number
// and a pointer into fs.inodes for the final component.
func (fs *FileSystem) resolve(path string) (uint32, *Inode, syscall.Errno) {
	ino := fs.sb.RootInode
	cur := &fs.inodes[ino]
	parts := splitPath(path)
	for _, name := range parts {
		if len(name) > MaxNameLen {
			return 0, nil, syscall.EINVAL
		}
		if !cur.isDir() {
			return 0, nil, syscall.ENOTDIR
		}
		_, childIno, _, found := fs.findInDir(cur, name)
		if !found {
			return 0, nil, syscall.ENOENT
		}
		ino = childIno
		cur = &fs.inodes[ino]
	}
	return ino, cur, 0
}

// resolveParent splits path into its containing directory and final
// component name, resolving only the directory part.
func (fs *FileSystem) resolveParent(path string) (parentIno uint32, parent *Inode, name string, errno syscall.Errno) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return 0, nil, "", syscall.EINVAL
	}
	name = parts[len(parts)-1]
	if len(name) > MaxNameLen {
		return 0, nil, "", syscall.EINVAL
	}
	dirPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	ino, inode, errno := fs.resolve(dirPath)
	if errno != 0 {
		return 0, nil, "", errno
	}
	if !inode.isDir() {
		return 0, nil, "", syscall.ENOTDIR
	}
	return ino, inode, name, 0
}
