package dirsize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/idelchi/dirsize/internal/classify"
)

// ErrCancelled is returned by Build when cancellation was observed.
// No tree accompanies it.
var ErrCancelled = errors.New("scan cancelled")

// ProgressSink receives the path just visited and the number of bytes counted
// so far in the whole scan. It is called on the traversal goroutine.
type ProgressSink func(path string, runningSize uint64)

// Classifier decides the storage class of a directory before it is opened.
type Classifier interface {
	Classify(path string) classify.Kind
}

// Warning is a non-fatal advisory about a directory that was not counted.
type Warning struct {
	// Status is the status given to the directory.
	Status Status
	// Path is the directory concerned.
	Path string
	// Message is a human readable explanation.
	Message string
}

// String formats the warning for logs.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Message, w.Path)
}

// Builder walks a directory and produces its size tree.
// A Builder holds no per-scan state and may run several scans concurrently.
type Builder struct {
	fs         FS
	classifier Classifier
	now        func() time.Time
	log        zerolog.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithClock replaces time.Now for stall detection.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.log = log }
}

// NewBuilder returns a Builder reading through fsys and classifying with classifier.
// A nil fsys means the host filesystem; a nil classifier treats every path as local.
func NewBuilder(fsys FS, classifier Classifier, opts ...BuilderOption) *Builder {
	if fsys == nil {
		fsys = OSFS{}
	}

	if classifier == nil {
		classifier = classify.Classifier{}
	}

	b := &Builder{
		fs:         fsys,
		classifier: classifier,
		now:        time.Now,
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Scan holds the per-call inputs of Build besides the root.
type Scan struct {
	Options Options
	// Token is observed between filesystem calls. Nil means never cancelled.
	Token *Token
	// Progress receives one event per visited entry. Optional.
	Progress ProgressSink
	// Warn receives advisories for skipped directories. Optional.
	Warn func(Warning)
}

// walker is the state of one Build call.
type walker struct {
	*Builder

	ctx          context.Context //nolint:containedctx // scoped to one Build call
	scan         Scan
	lastProgress time.Time
	total        uint64
	seen         map[fileID]struct{}
}

// Build walks root and returns its size tree.
//
// Per-directory failures are recorded in node statuses and never returned.
// The only errors are ErrCancelled (token set or ctx done) and invalid options.
// The root node always exists on success, even when root itself cannot be read.
// A relative root is resolved against the working directory, so every Node.Path is absolute.
func (b *Builder) Build(ctx context.Context, root string, scan Scan) (*Node, error) {
	if err := scan.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	root, err := AbsRoot(root)
	if err != nil {
		return nil, err
	}

	w := &walker{
		Builder:      b,
		ctx:          ctx,
		scan:         scan,
		lastProgress: b.now(),
		seen:         make(map[fileID]struct{}),
	}

	return w.build(root, displayName(root), 0, nil)
}

func (w *walker) cancelled() bool {
	if w.scan.Token != nil && w.scan.Token.Cancelled() {
		return true
	}

	return w.ctx.Err() != nil
}

func (w *walker) timedOut() bool {
	return w.scan.Options.timedOut(w.lastProgress, w.now())
}

func (w *walker) progress(path string) {
	w.lastProgress = w.now()

	if w.scan.Progress != nil {
		w.scan.Progress(path, w.total)
	}
}

func (w *walker) warn(status Status, path, message string) {
	w.log.Debug().Str("path", path).Str("status", status.String()).Msg(message)

	if w.scan.Warn != nil {
		w.scan.Warn(Warning{Status: status, Path: path, Message: message})
	}
}

// build returns the node for the directory at path, which sits at depth below the root.
// entry is the directory entry path was found through, nil for the root.
//
//nolint:gocognit,cyclop,funlen // Steps mirror the traversal policy one to one.
func (w *walker) build(path, name string, depth uint, entry fs.DirEntry) (*Node, error) {
	if w.cancelled() {
		return nil, ErrCancelled
	}

	opts := w.scan.Options

	switch w.classifier.Classify(path) {
	case classify.KindNetwork:
		if opts.SkipNetwork {
			w.warn(StatusNetworkSkipped, path, "directory skipped: network storage")

			return skippedNode(path, name, StatusNetworkSkipped), nil
		}
	case classify.KindCloud:
		if opts.SkipCloud {
			w.warn(StatusCloudSkipped, path, "directory skipped: cloud storage")

			return skippedNode(path, name, StatusCloudSkipped), nil
		}
	case classify.KindLocal:
	}

	if opts.depthLimited(depth) {
		w.log.Debug().Str("path", path).Uint("depth", depth).Msg("skipping directory beyond depth limit")

		return skippedNode(path, name, StatusDepthLimited), nil
	}

	if w.timedOut() {
		w.warn(StatusTimedOut, path, "directory skipped: timed out")

		return skippedNode(path, name, StatusTimedOut), nil
	}

	if w.visited(path, entry) {
		node := skippedNode(path, name, StatusError)
		node.Message = "directory already visited"
		w.warn(StatusError, path, node.Message)

		return node, nil
	}

	entries, err := w.fs.ReadDir(path)
	if err != nil {
		if isPermissionErr(err) {
			if !opts.SkipAccessDenied {
				w.warn(StatusAccessDenied, path, "access denied")
			} else {
				w.log.Debug().Str("path", path).Msg("access denied")
			}

			return skippedNode(path, name, StatusAccessDenied), nil
		}

		node := skippedNode(path, name, StatusError)
		node.Message = err.Error()
		w.warn(StatusError, path, "reading directory failed")

		return node, nil
	}

	node := newNode(path, name)

	for _, child := range entries {
		if w.cancelled() {
			return nil, ErrCancelled
		}

		if w.timedOut() {
			w.warn(StatusTimedOut, path, "directory abandoned: timed out")

			return skippedNode(path, name, StatusTimedOut), nil
		}

		childPath := filepath.Join(path, child.Name())

		switch {
		case child.IsDir():
			sub, err := w.build(childPath, child.Name(), depth+1, child)
			if err != nil {
				return nil, err
			}

			node.Children = append(node.Children, sub)

			if sub.Status == StatusNormal {
				node.Size += sub.Size
				node.Files += sub.Files

				if sub.ModTime.After(node.ModTime) {
					node.ModTime = sub.ModTime
				}
			}

			if sub.HasDescendantAccessDenied {
				node.HasDescendantAccessDenied = true
			}
		case child.Type().IsRegular():
			if info, ok := w.fileInfo(childPath, child); ok {
				size := uint64(max(info.Size(), 0))
				node.Size += size
				node.Files++
				w.total += size

				if info.ModTime().After(node.ModTime) {
					node.ModTime = info.ModTime()
				}
			}
		}

		w.progress(childPath)
	}

	return node, nil
}

// fileInfo reads the metadata of a regular file, retrying once with Lstat.
// Unreadable files are skipped without affecting the parent's status.
func (w *walker) fileInfo(path string, entry fs.DirEntry) (fs.FileInfo, bool) {
	info, err := entry.Info()
	if err == nil {
		return info, true
	}

	info, err = w.fs.Lstat(path)
	if err != nil {
		w.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")

		return nil, false
	}

	return info, true
}

// visited records the directory's identity and reports whether it was seen before.
// Directories without an identity (non-unix, in-memory filesystems) are never deduplicated.
func (w *walker) visited(path string, entry fs.DirEntry) bool {
	var (
		info fs.FileInfo
		err  error
	)

	if entry != nil {
		info, err = entry.Info()
	} else {
		info, err = w.fs.Stat(path)
	}

	if err != nil {
		return false
	}

	id, ok := identity(info)
	if !ok {
		return false
	}

	if _, dup := w.seen[id]; dup {
		return true
	}

	w.seen[id] = struct{}{}

	return false
}

// displayName is the basename of path, or path itself for roots like "/" and "C:\".
func displayName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == filepath.VolumeName(path) {
		return path
	}

	return name
}
