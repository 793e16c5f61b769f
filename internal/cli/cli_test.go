package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dirsize/internal/dirsize"
)

// fixture creates root/a.bin (100 B) and root/sub/b.bin (200 B).
func fixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.bin"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.bin"), make([]byte, 200), 0o644))

	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := New("1.2.3").Command(&stdout, &stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), err
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options Options
		wantErr string
	}{
		{name: "defaults", options: Options{Output: "table", Top: 10, Timeout: 30}},
		{name: "tree output", options: Options{Output: "tree", Timeout: 1}},
		{name: "bad output", options: Options{Output: "yaml", Timeout: 1}, wantErr: "invalid output format"},
		{name: "negative top", options: Options{Output: "json", Top: -1, Timeout: 1}, wantErr: "top cannot be negative"},
		{name: "zero timeout", options: Options{Output: "json"}, wantErr: "timeout must be positive"},
		{name: "zero timeout disabled", options: Options{Output: "json", NoTimeout: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.options.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestOptionsScan(t *testing.T) {
	t.Parallel()

	got := Options{Timeout: 5, Depth: 3, ShowDenied: true, IncludeCloud: true}.Scan()

	assert.Equal(t, dirsize.Options{
		TimeoutEnabled:   true,
		Timeout:          5 * time.Second,
		MaxDepth:         3,
		SkipAccessDenied: false,
		SkipNetwork:      true,
		SkipCloud:        false,
	}, got)

	assert.False(t, Options{NoTimeout: true}.Scan().TimeoutEnabled)
}

func TestCommandJSON(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	out, err := execute(t, "--output", "json", root)
	require.NoError(t, err)

	var report struct {
		Tree struct {
			Path     string `json:"path"`
			Size     uint64 `json:"size"`
			Files    uint64 `json:"files"`
			Children []struct {
				Name string `json:"name"`
				Size uint64 `json:"size"`
			} `json:"children"`
		} `json:"tree"`
		Statuses map[string]int `json:"statuses"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, root, report.Tree.Path)
	assert.Equal(t, uint64(300), report.Tree.Size)
	assert.Equal(t, uint64(2), report.Tree.Files)
	require.Len(t, report.Tree.Children, 1)
	assert.Equal(t, "sub", report.Tree.Children[0].Name)
	assert.Equal(t, uint64(200), report.Tree.Children[0].Size)
	assert.Equal(t, map[string]int{"normal": 2}, report.Statuses)
}

func TestCommandTable(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	out, err := execute(t, root)
	require.NoError(t, err)

	assert.Contains(t, out, "Top directories:")
	assert.Contains(t, out, filepath.Join(root, "sub"))
	assert.Contains(t, out, "Total files:")
	assert.Contains(t, out, "300 B (300 bytes)")
	assert.NotContains(t, out, "Skipped:")
	assert.NotContains(t, out, "Unreadable:")
}

func TestCommandDepthLimit(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	out, err := execute(t, "--output", "tree", "--depth", "1", root)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], filepath.Base(root)))
	assert.Contains(t, lines[0], "100 B")
	assert.True(t, strings.HasPrefix(lines[1], "  sub"))
	assert.Contains(t, lines[1], "[depth_limited]")
}

func TestCommandFlat(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	out, err := execute(t, "--flat", "-o", "json", root)
	require.NoError(t, err)

	var summary dirsize.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, uint64(300), summary.Bytes)
	assert.Equal(t, uint64(2), summary.Files)
	assert.False(t, summary.AccessDenied)

	out, err = execute(t, "--flat", root)
	require.NoError(t, err)
	assert.Contains(t, out, "300 B (300 bytes)")
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown output", args: []string{"-o", "xml", root}, wantErr: "invalid output format"},
		{name: "bad min size", args: []string{"--min-size", "lots", root}, wantErr: "invalid min-size"},
		{name: "missing root", args: []string{filepath.Join(root, "nope")}, wantErr: "INVALID_INPUT"},
		{name: "file root", args: []string{filepath.Join(root, "a.bin")}, wantErr: "not a directory"},
		{name: "missing flat root", args: []string{"--flat", filepath.Join(root, "nope")}, wantErr: "invalid root"},
		{name: "too many args", args: []string{root, root}, wantErr: "accepts at most 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCommandVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestPrintTree(t *testing.T) {
	t.Parallel()

	tree := &dirsize.Node{
		Name: "root", Path: "/root", Size: 3000, HasDescendantAccessDenied: true,
		Children: []*dirsize.Node{
			{Name: "big", Path: "/root/big", Size: 3000, Children: []*dirsize.Node{
				{Name: "tiny", Path: "/root/big/tiny", Size: 10},
			}},
			{Name: "small", Path: "/root/small", Size: 5},
			{Name: "locked", Path: "/root/locked", Status: dirsize.StatusAccessDenied, HasDescendantAccessDenied: true},
			{Name: "loop", Path: "/root/loop", Status: dirsize.StatusError, Message: "directory already visited"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTree(tree, 100, &buf))

	out := buf.String()
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "[partial]")
	assert.Contains(t, out, "  big")
	assert.NotContains(t, out, "tiny")
	assert.NotContains(t, out, "small")
	assert.Contains(t, out, "[access_denied]")
	assert.Contains(t, out, "[error: directory already visited]")
}

func TestPrintTableSkipped(t *testing.T) {
	t.Parallel()

	tree := &dirsize.Node{
		Name: "root", Path: "/root", Size: 10, Files: 1,
		Children: []*dirsize.Node{
			{Name: "Dropbox", Path: "/root/Dropbox", Status: dirsize.StatusCloudSkipped},
			{Name: "slow", Path: "/root/slow", Status: dirsize.StatusTimedOut},
			{Name: "locked", Path: "/root/locked", Status: dirsize.StatusAccessDenied},
			{Name: "data", Path: "/root/data", Size: 10, Files: 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTable(NewReport(tree, time.Second), 5, 0, &buf))

	out := buf.String()
	assert.Contains(t, out, "'/root/data'")
	assert.NotContains(t, out, "'/root/Dropbox'")
	skipped := strings.Index(out, "Skipped:")
	unreadable := strings.Index(out, "Unreadable:")
	require.Positive(t, skipped)
	require.Greater(t, unreadable, skipped)

	assert.Contains(t, out[skipped:unreadable], "cloud_skipped:")
	assert.Contains(t, out[skipped:unreadable], "timed_out:")
	assert.Contains(t, out[unreadable:], "access_denied:")
	assert.NotContains(t, out[unreadable:], "cloud_skipped:")
	assert.Contains(t, out, "(100.0%)")
}
