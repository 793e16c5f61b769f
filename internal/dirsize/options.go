package dirsize

import (
	"errors"
	"time"
)

// DefaultTimeout is the default per-subtree stall timeout.
const DefaultTimeout = 30 * time.Second

// Options configures a single scan. It is not mutated during a scan.
type Options struct {
	// TimeoutEnabled turns on per-subtree stall detection.
	TimeoutEnabled bool
	// Timeout is the stall threshold since the last progress emission.
	Timeout time.Duration
	// MaxDepth limits traversal depth relative to the root (0=unlimited).
	MaxDepth uint
	// SkipAccessDenied treats unreadable directories as a soft skip.
	// When false they are additionally reported as warnings.
	SkipAccessDenied bool
	// SkipNetwork leaves directories on network mounts unopened.
	SkipNetwork bool
	// SkipCloud leaves cloud-sync folders unopened.
	SkipCloud bool
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{
		TimeoutEnabled:   true,
		Timeout:          DefaultTimeout,
		SkipAccessDenied: true,
		SkipNetwork:      true,
		SkipCloud:        true,
	}
}

// WithTimeoutSeconds returns a copy of o with the timeout set in whole seconds.
func (o Options) WithTimeoutSeconds(seconds uint) Options {
	o.Timeout = time.Duration(seconds) * time.Second

	return o
}

// Validate reports option combinations that cannot be honored.
func (o Options) Validate() error {
	if o.TimeoutEnabled && o.Timeout <= 0 {
		return errors.New("timeout must be positive when enabled")
	}

	return nil
}

// timedOut reports whether more than the configured timeout has elapsed since last.
func (o Options) timedOut(last, now time.Time) bool {
	return o.TimeoutEnabled && now.Sub(last) > o.Timeout
}

// depthLimited reports whether a directory at depth must not be opened.
func (o Options) depthLimited(depth uint) bool {
	return o.MaxDepth > 0 && depth >= o.MaxDepth
}
