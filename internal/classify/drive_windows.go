//go:build windows

package classify

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// QueryDriveType asks GetDriveTypeW about the volume root of path.
func QueryDriveType(path string) (DriveType, error) {
	volume := filepath.VolumeName(path)
	if volume == "" {
		return DriveUnknown, nil
	}

	root, err := windows.UTF16PtrFromString(volume + `\`)
	if err != nil {
		return DriveUnknown, fmt.Errorf("encoding volume %q: %w", volume, err)
	}

	switch windows.GetDriveType(root) {
	case windows.DRIVE_REMOTE:
		return DriveRemote, nil
	case windows.DRIVE_UNKNOWN, windows.DRIVE_NO_ROOT_DIR:
		return DriveUnknown, nil
	default:
		return DriveLocal, nil
	}
}
