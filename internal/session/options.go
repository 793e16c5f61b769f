package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/idelchi/dirsize/internal/dirsize"
)

const (
	// DefaultBuffer is the default capacity of a session's event channel.
	DefaultBuffer = 256
	// minBuffer leaves room for the terminal and finished events.
	minBuffer = 4
	// reserved is the capacity kept free for the terminal and finished events.
	reserved = 2
)

type config struct {
	fs            dirsize.FS
	classifier    dirsize.Classifier
	log           zerolog.Logger
	buffer        int
	now           func() time.Time
	stallInterval time.Duration
}

func defaultConfig() config {
	return config{
		fs:     dirsize.OSFS{},
		log:    zerolog.Nop(),
		buffer: DefaultBuffer,
		now:    time.Now,
	}
}

// Option customizes a Session.
type Option func(*config)

// WithFS sets the filesystem scanned. Defaults to the host filesystem.
func WithFS(fsys dirsize.FS) Option {
	return func(c *config) { c.fs = fsys }
}

// WithClassifier sets the path classifier. Defaults to treating every path as local.
func WithClassifier(classifier dirsize.Classifier) Option {
	return func(c *config) { c.classifier = classifier }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithBuffer sets the event channel capacity. Values below 4 are raised to 4.
func WithBuffer(size int) Option {
	return func(c *config) { c.buffer = max(size, minBuffer) }
}

// WithClock replaces time.Now for elapsed time and stall detection.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithStallCheckInterval sets how often the stall guard looks at the progress clock.
// By default it checks four times per stall window, at most once per second.
func WithStallCheckInterval(interval time.Duration) Option {
	return func(c *config) { c.stallInterval = interval }
}

func (c config) stallCheckInterval(window time.Duration) time.Duration {
	if c.stallInterval > 0 {
		return c.stallInterval
	}

	return min(max(window/4, time.Millisecond), time.Second)
}
