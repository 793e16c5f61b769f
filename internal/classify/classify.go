// Package classify decides whether a directory lives on local storage, on a
// network mount, or inside a folder mirrored by a cloud-sync client.
//
// Classification is a pure function of the path string plus an optional
// platform drive-type query. A failing or missing query never fails the caller;
// it is treated as "not a network drive".
package classify

import (
	"slices"
	"strings"
)

// Kind is the storage class of a path.
type Kind int

const (
	// KindLocal is an ordinary local path.
	KindLocal Kind = iota
	// KindNetwork is a UNC path or a path on a remote mount.
	KindNetwork
	// KindCloud is a path inside a recognized cloud-sync folder.
	KindCloud
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindNetwork:
		return "network"
	case KindCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// DriveType is the result of a platform drive-type query.
type DriveType int

const (
	// DriveUnknown means the platform could not tell, or has no such query.
	DriveUnknown DriveType = iota
	// DriveLocal is a fixed or removable local volume.
	DriveLocal
	// DriveRemote is a network mount.
	DriveRemote
)

// DriveTypeFunc queries the platform for the drive type backing path.
type DriveTypeFunc func(path string) (DriveType, error)

// cloudMarkers are the sync-folder names matched as whole path segments.
// Entries are lowercase; "onedrive" also matches business folders named
// "OneDrive - Contoso".
//
//nolint:gochecknoglobals // Lookup table
var cloudMarkers = []string{
	"box drive",
	"box sync",
	"onedrive",
	"dropbox",
	"google drive",
	"googledrive",
	"icloud drive",
	"iclouddrive",
	"mobile documents",
	"pcloud drive",
	"pclouddrive",
	"megasync",
	"nextcloud",
	"owncloud",
}

// placedMarkers are names too common to match anywhere. They only count where
// the sync client creates them: directly below a home directory ("/home/me/Box",
// "C:\Users\me\MEGA"), at a drive root ("G:\My Drive"), or in "~/Library".
//
//nolint:gochecknoglobals // Lookup table
var placedMarkers = []string{
	"box",
	"mega",
	"my drive",
	"cloudstorage",
}

// Classifier classifies paths. The zero value only uses path heuristics.
type Classifier struct {
	// DriveType is consulted for non-UNC paths. Nil disables the query.
	DriveType DriveTypeFunc
}

// New returns a Classifier wired to the platform drive-type query.
func New() Classifier {
	return Classifier{DriveType: QueryDriveType}
}

// Classify returns the storage class of path.
// Cloud markers take precedence over a remote drive type.
func (c Classifier) Classify(path string) Kind {
	if IsCloud(path) {
		return KindCloud
	}

	if IsUNC(path) {
		return KindNetwork
	}

	if c.DriveType != nil {
		if dt, err := c.DriveType(path); err == nil && dt == DriveRemote {
			return KindNetwork
		}
	}

	return KindLocal
}

// IsUNC reports whether path uses the \\server\share convention.
// The forward-slash spelling //server/share is accepted as well.
// Win32 device namespaces (\\?\, \\.\) are only UNC when they name one
// explicitly (\\?\UNC\server\share).
func IsUNC(path string) bool {
	p := strings.ReplaceAll(path, `\`, "/")
	if !strings.HasPrefix(p, "//") {
		return false
	}

	rest := p[2:]

	if strings.HasPrefix(rest, "?/") || strings.HasPrefix(rest, "./") {
		return strings.HasPrefix(strings.ToUpper(rest[2:]), "UNC/") && len(rest) > len("?/UNC/")
	}

	server, _, _ := strings.Cut(rest, "/")

	return server != ""
}

// IsCloud reports whether any segment of path is a cloud-sync marker.
// Segments are split on both / and \, so "C:\Users\me\Dropbox\x" and
// "/home/me/Dropbox/x" match while "/home/me/Boxing" does not.
func IsCloud(path string) bool {
	segments := splitSegments(path)

	for i, segment := range segments {
		if isCloudSegment(segment) || isPlacedSegment(segments, i) {
			return true
		}
	}

	return false
}

func normalize(segment string) string {
	return strings.ToLower(strings.TrimSpace(segment))
}

func isCloudSegment(segment string) bool {
	s := normalize(segment)
	if s == "" {
		return false
	}

	if slices.Contains(cloudMarkers, s) {
		return true
	}

	// "OneDrive - Org Name" and "Nextcloud - user@host" style business folders.
	if prefix, _, ok := strings.Cut(s, " - "); ok {
		switch prefix {
		case "onedrive", "nextcloud", "owncloud", "dropbox", "box":
			return true
		}
	}

	return false
}

// isPlacedSegment reports whether segments[i] is a placed marker in a location
// where a sync client puts it.
func isPlacedSegment(segments []string, i int) bool {
	if !slices.Contains(placedMarkers, normalize(segments[i])) {
		return false
	}

	switch {
	case i == 1 && strings.HasSuffix(segments[0], ":"):
		return true
	case i >= 1 && normalize(segments[i-1]) == "library":
		return true
	case i >= 2:
		parent := normalize(segments[i-2])

		return parent == "home" || parent == "users"
	default:
		return false
	}
}

func splitSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
