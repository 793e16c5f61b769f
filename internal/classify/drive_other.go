//go:build !linux && !darwin && !freebsd && !windows

package classify

// QueryDriveType has no implementation on this platform.
func QueryDriveType(string) (DriveType, error) {
	return DriveUnknown, nil
}
