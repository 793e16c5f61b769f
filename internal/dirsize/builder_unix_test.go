//go:build unix

package dirsize

import (
	"context"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inodeFS reports fixed device/inode pairs for selected directories.
type inodeFS struct {
	FS

	ids map[string]*syscall.Stat_t
}

func (f inodeFS) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, err := f.FS.ReadDir(path)
	if err != nil {
		return nil, err
	}

	for i, entry := range entries {
		if st, ok := f.ids[path+"/"+entry.Name()]; ok {
			entries[i] = statEntry{DirEntry: entry, st: st}
		}
	}

	return entries, nil
}

type statEntry struct {
	fs.DirEntry

	st *syscall.Stat_t
}

func (e statEntry) Info() (fs.FileInfo, error) {
	info, err := e.DirEntry.Info()
	if err != nil {
		return nil, err
	}

	return statInfo{FileInfo: info, st: e.st}, nil
}

type statInfo struct {
	fs.FileInfo

	st *syscall.Stat_t
}

func (i statInfo) Sys() any { return i.st }

func TestBuildSameDirectoryReachedTwice(t *testing.T) {
	t.Parallel()

	shared := &syscall.Stat_t{Dev: 1, Ino: 42}
	fsys := inodeFS{
		FS:  newMemFS(t, tree{"/root/a/x": 5, "/root/b/x": 5, "/root/c/y": 1}),
		ids: map[string]*syscall.Stat_t{"/root/a": shared, "/root/b": shared},
	}

	var warnings []Warning

	scan := Scan{Warn: func(w Warning) { warnings = append(warnings, w) }}

	node, err := NewBuilder(fsys, nil).Build(context.Background(), "/root", scan)
	require.NoError(t, err)
	require.Len(t, node.Children, 3)

	a, b, c := node.Children[0], node.Children[1], node.Children[2]
	assert.Equal(t, StatusNormal, a.Status)
	assert.Equal(t, StatusError, b.Status)
	assert.Equal(t, "directory already visited", b.Message)
	assert.Zero(t, b.Size)
	assert.Equal(t, StatusNormal, c.Status)
	assert.Equal(t, uint64(6), node.Size)

	require.Len(t, warnings, 1)
	assert.Equal(t, "/root/b", warnings[0].Path)

	checkInvariants(t, node, map[string]uint64{"/root/a": 5, "/root/c": 1})
}

func TestBuildZeroInodeIsNotDeduplicated(t *testing.T) {
	t.Parallel()

	zero := &syscall.Stat_t{Dev: 7, Ino: 0}
	fsys := inodeFS{
		FS:  newMemFS(t, tree{"/root/a/x": 5, "/root/b/x": 5}),
		ids: map[string]*syscall.Stat_t{"/root/a": zero, "/root/b": zero},
	}

	node, err := NewBuilder(fsys, nil).Build(context.Background(), "/root", localOnly())
	require.NoError(t, err)

	for _, child := range node.Children {
		assert.Equal(t, StatusNormal, child.Status, child.Path)
	}

	assert.Equal(t, uint64(10), node.Size)
}
