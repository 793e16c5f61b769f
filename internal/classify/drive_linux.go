//go:build linux

package classify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers reported in statfs.f_type for remote filesystems.
// CIFS and SMB2 are not exported by x/sys, values are from linux/magic.h.
const (
	cifsMagic = 0xFF534D42
	smb2Magic = 0xFE534D42
)

//nolint:gochecknoglobals // Lookup table
var remoteMagics = map[int64]struct{}{
	unix.NFS_SUPER_MAGIC:  {},
	unix.SMB_SUPER_MAGIC:  {},
	cifsMagic:             {},
	smb2Magic:             {},
	unix.CODA_SUPER_MAGIC: {},
	unix.AFS_SUPER_MAGIC:  {},
	unix.V9FS_MAGIC:       {},
}

// QueryDriveType asks the kernel which filesystem backs path.
func QueryDriveType(path string) (DriveType, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DriveUnknown, fmt.Errorf("statfs %q: %w", path, err)
	}

	//nolint:unconvert // f_type width differs across architectures
	if _, ok := remoteMagics[int64(st.Type)&0xFFFFFFFF]; ok {
		return DriveRemote, nil
	}

	return DriveLocal, nil
}
