package dirsize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog"
)

// DefaultProgressInterval is the default interval for Measure progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Summary is the flattened size of a directory tree.
type Summary struct {
	// Path is the measured root.
	Path string `json:"path"`
	// Bytes is the total size of regular files, hard links counted once.
	Bytes uint64 `json:"bytes"`
	// Files is the number of regular files counted.
	Files uint64 `json:"files"`
	// AccessDenied is true if any directory could not be read due to permissions.
	AccessDenied bool `json:"access_denied"`
	// Errors counts entries that failed for other reasons.
	Errors uint64 `json:"errors"`
	// LastModified is the latest modification time among counted files.
	LastModified time.Time `json:"last_modified,omitzero"`
	// Elapsed is the total time taken.
	Elapsed time.Duration `json:"elapsed"`
}

// MeasureOptions configures Measure.
type MeasureOptions struct {
	// Progress is invoked with (files, bytes) every ProgressInterval. Optional.
	Progress func(files, bytes uint64)
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives debug output for skipped entries.
	Logger *zerolog.Logger
}

// tally aggregates results from concurrent fastwalk callbacks using a mutex.
type tally struct {
	mu           sync.Mutex
	bytes        uint64
	files        uint64
	errors       uint64
	accessDenied bool
	lastModified time.Time
	links        map[fileID]struct{}
}

func (t *tally) snapshot() (uint64, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.files, t.bytes
}

func (t *tally) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isPermissionErr(err) {
		t.accessDenied = true
	} else {
		t.errors++
	}
}

func (t *tally) add(info fs.FileInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := linkIdentity(info); ok {
		if _, dup := t.links[id]; dup {
			return
		}

		t.links[id] = struct{}{}
	}

	t.bytes += uint64(max(info.Size(), 0))
	t.files++

	if info.ModTime().After(t.lastModified) {
		t.lastModified = info.ModTime()
	}
}

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
// The returned function blocks until the reporter has exited.
func startProgressReporter(ctx context.Context, t *tally, hook func(uint64, uint64), interval time.Duration) func() {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(t.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { <-done }
}

// Measure returns the total size of the tree at path without building a tree.
// It walks in parallel and does not follow symlinks. Unreadable directories
// set Summary.AccessDenied instead of failing.
//
// The walk can be cancelled via ctx, in which case ctx's error is returned.
func Measure(ctx context.Context, path string, opt MeasureOptions) (Summary, error) {
	log := zerolog.Nop()
	if opt.Logger != nil {
		log = *opt.Logger
	}

	path, err := AbsRoot(path)
	if err != nil {
		return Summary{}, err
	}

	if err := ValidateRoot(OSFS{}, path); err != nil {
		return Summary{}, err
	}

	t := &tally{links: make(map[fileID]struct{})}

	// Child context so the progress reporter stops with the walk.
	ctx, cancel := context.WithCancel(ctx)
	wait := startProgressReporter(ctx, t, opt.Progress, opt.ProgressInterval)

	defer func() {
		cancel()
		wait()
	}()

	start := time.Now()

	conf := &fastwalk.Config{
		Follow: false,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("error accessing path")
			t.fail(err)

			return nil // Unreadable entries are tallied, not fatal
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			t.fail(err)

			return nil
		}

		t.add(info)

		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return Summary{}, walkErr
		}

		return Summary{}, fmt.Errorf("walking %q: %w", path, walkErr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return Summary{
		Path:         path,
		Bytes:        t.bytes,
		Files:        t.files,
		AccessDenied: t.accessDenied,
		Errors:       t.errors,
		LastModified: t.lastModified,
		Elapsed:      time.Since(start),
	}, nil
}
