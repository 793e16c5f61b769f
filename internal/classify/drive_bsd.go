//go:build darwin || freebsd

package classify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

//nolint:gochecknoglobals // Lookup table
var remoteFSTypes = map[string]struct{}{
	"nfs":    {},
	"smbfs":  {},
	"afpfs":  {},
	"webdav": {},
	"cifs":   {},
}

// QueryDriveType asks the kernel which filesystem backs path.
func QueryDriveType(path string) (DriveType, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DriveUnknown, fmt.Errorf("statfs %q: %w", path, err)
	}

	if _, ok := remoteFSTypes[unix.ByteSliceToString(st.Fstypename[:])]; ok {
		return DriveRemote, nil
	}

	return DriveLocal, nil
}
