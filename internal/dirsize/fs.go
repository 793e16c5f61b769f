package dirsize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// ErrInvalidRoot is returned when the scan root does not exist or is not a directory.
var ErrInvalidRoot = errors.New("invalid root")

// FS is the filesystem access a scan needs.
type FS interface {
	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]fs.DirEntry, error)
	// Lstat describes path without following a final symlink.
	Lstat(path string) (fs.FileInfo, error)
	// Stat describes path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS is the host filesystem.
type OSFS struct{}

// ReadDir implements FS.ReadDir.
func (OSFS) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// Lstat implements FS.Lstat.
func (OSFS) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Stat implements FS.Stat.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// BillyFS adapts a go-billy filesystem.
type BillyFS struct {
	fs billy.Filesystem
}

// NewBillyFS wraps fsys.
func NewBillyFS(fsys billy.Filesystem) BillyFS {
	return BillyFS{fs: fsys}
}

// ReadDir implements FS.ReadDir. Entries are sorted by name like os.ReadDir.
func (b BillyFS) ReadDir(path string) ([]fs.DirEntry, error) {
	infos, err := b.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// Lstat implements FS.Lstat.
func (b BillyFS) Lstat(path string) (fs.FileInfo, error) {
	return b.fs.Lstat(path)
}

// Stat implements FS.Stat.
func (b BillyFS) Stat(path string) (fs.FileInfo, error) {
	return b.fs.Stat(path)
}

// AbsRoot returns the absolute, cleaned form of path.
// Failures wrap ErrInvalidRoot.
func AbsRoot(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving path %q: %w", ErrInvalidRoot, path, err)
	}

	return abs, nil
}

// ValidateRoot checks that path exists and is a directory.
// Failures wrap ErrInvalidRoot.
func ValidateRoot(fsys FS, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: accessing path %q: %w", ErrInvalidRoot, path, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: path %q is not a directory", ErrInvalidRoot, path)
	}

	return nil
}

// isPermissionErr reports whether err is a permission failure.
func isPermissionErr(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
