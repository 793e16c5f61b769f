//go:build unix

package dirsize

import (
	"io/fs"
	"syscall"
)

// fileID identifies a file across hard links and bind mounts.
type fileID struct {
	dev uint64
	ino uint64
}

// identity returns the device/inode pair behind info.
// Some network and FUSE filesystems report inode 0 for everything; those have no identity.
func identity(info fs.FileInfo) (fileID, bool) {
	if info == nil {
		return fileID{}, false
	}

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st.Ino == 0 {
		return fileID{}, false
	}

	//nolint:unconvert // field widths differ across platforms
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

// linkIdentity is like identity but only reports files with more than one link,
// which are the only ones that can be counted twice.
func linkIdentity(info fs.FileInfo) (fileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || uint64(st.Nlink) < 2 { //nolint:unconvert // field widths differ across platforms
		return fileID{}, false
	}

	return identity(info)
}
