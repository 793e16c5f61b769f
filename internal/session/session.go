// Package session drives one directory scan asynchronously.
//
// A Session runs the traversal on its own goroutine, owns the cancellation
// token and the elapsed-time measurement, and reports everything that happens
// through a single ordered event channel: zero or more progress and warning
// events, exactly one terminal event (completed, cancelled or failed), and a
// final finished event, after which the channel is closed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/dirsize/internal/dirsize"
)

var (
	errStalled = errors.New("scan stalled")
	errPanic   = errors.New("traversal panicked")
)

// Session is one running or finished scan.
type Session struct {
	id    string
	root  string
	cfg   config
	token *dirsize.Token

	mu     sync.Mutex
	events chan Event
	closed bool

	done    chan struct{}
	outcome Event

	dropped      atomic.Int64
	lastProgress atomic.Int64 // unix nanoseconds
}

// Start begins scanning root on a background goroutine and returns immediately.
// The caller should drain Events until it is closed, or call Wait.
func Start(ctx context.Context, root string, opts dirsize.Options, options ...Option) *Session {
	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}

	s := &Session{
		id:     uuid.NewString(),
		root:   root,
		cfg:    cfg,
		token:  dirsize.NewToken(),
		events: make(chan Event, cfg.buffer),
		done:   make(chan struct{}),
	}

	s.cfg.log = cfg.log.With().Str("session", s.id).Str("root", root).Logger()

	go s.run(ctx, opts)

	return s
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// Root returns the path being scanned.
func (s *Session) Root() string { return s.root }

// Events returns the ordered event stream. It is closed after the finished event.
func (s *Session) Events() <-chan Event { return s.events }

// Cancel requests cancellation. It never blocks and may be called any number
// of times, including after the session finished, in which case it has no effect.
func (s *Session) Cancel() {
	s.token.Cancel()
}

// Done returns a channel closed once the session has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session has finished and returns its terminal event.
func (s *Session) Wait() Event {
	<-s.done

	return s.outcome
}

// DroppedEvents returns how many progress and warning events were dropped
// because the consumer fell behind.
func (s *Session) DroppedEvents() int64 {
	return s.dropped.Load()
}

func (s *Session) run(ctx context.Context, opts dirsize.Options) {
	start := s.cfg.now()

	outcome := s.execute(ctx, opts, start)

	s.mu.Lock()
	s.outcome = outcome
	s.events <- outcome
	s.events <- FinishedEvent{BaseEvent: base(EventFinished, s.cfg.now())}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	s.token.Release()
	close(s.done)
}

//nolint:funlen // Linear orchestration, splitting it hides the flow.
func (s *Session) execute(ctx context.Context, opts dirsize.Options, start time.Time) Event {
	log := s.cfg.log

	if err := opts.Validate(); err != nil {
		return s.failed(KindInvalidInput, fmt.Sprintf("invalid options: %v", err))
	}

	root, err := dirsize.AbsRoot(s.root)
	if err != nil {
		return s.failed(KindInvalidInput, err.Error())
	}

	if err := dirsize.ValidateRoot(s.cfg.fs, root); err != nil {
		return s.failed(KindInvalidInput, err.Error())
	}

	builder := dirsize.NewBuilder(
		s.cfg.fs,
		s.cfg.classifier,
		dirsize.WithClock(s.cfg.now),
		dirsize.WithLogger(log),
	)

	scan := dirsize.Scan{
		Options:  opts,
		Token:    s.token,
		Progress: s.onProgress,
		Warn:     s.onWarning,
	}

	s.lastProgress.Store(start.UnixNano())

	group, gctx := errgroup.WithContext(ctx)
	buildDone := make(chan struct{})
	stalled := make(chan struct{})

	var tree *dirsize.Node

	group.Go(func() (err error) {
		defer close(buildDone)

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errPanic, r)
			}
		}()

		tree, err = builder.Build(gctx, root, scan)

		return err
	})

	if opts.TimeoutEnabled {
		window := 2 * opts.Timeout

		group.Go(func() error {
			return s.watchStall(gctx, buildDone, stalled, window)
		})
	}

	result := make(chan error, 1)

	go func() { result <- group.Wait() }()

	log.Debug().Str("path", root).Msg("scan started")

	select {
	case err = <-result:
	case <-stalled:
		// The builder may be blocked in a filesystem call; it exits on its own
		// once the call returns and it observes the token.
		err = errStalled
	}

	if err != nil {
		select {
		case <-stalled:
			err = errStalled
		default:
		}
	}

	switch {
	case err == nil:
		elapsed := s.cfg.now().Sub(start)
		log.Debug().
			Str("size", humanize.IBytes(tree.Size)).
			Dur("elapsed", elapsed).
			Msg("scan completed")

		return CompletedEvent{BaseEvent: base(EventCompleted, s.cfg.now()), Tree: tree, Elapsed: elapsed}
	case errors.Is(err, errStalled):
		log.Warn().Msg("scan stalled, cancelling")

		return s.cancelled(ReasonStalled)
	case errors.Is(err, dirsize.ErrCancelled):
		if s.token.Cancelled() {
			return s.cancelled(ReasonRequested)
		}

		return s.cancelled(ReasonContext)
	default:
		log.Error().Err(err).Msg("scan failed")

		return s.failed(KindUnexpected, err.Error())
	}
}

// watchStall cancels the scan when no progress has been observed for window.
func (s *Session) watchStall(ctx context.Context, buildDone <-chan struct{}, stalled chan<- struct{}, window time.Duration) error {
	ticker := time.NewTicker(s.cfg.stallCheckInterval(window))
	defer ticker.Stop()

	for {
		select {
		case <-buildDone:
			return nil
		case <-ctx.Done():
			return nil
		case <-s.token.Done():
			return nil
		case <-ticker.C:
			last := time.Unix(0, s.lastProgress.Load())
			if s.cfg.now().Sub(last) > window {
				s.token.Cancel()
				close(stalled)

				return errStalled
			}
		}
	}
}

func (s *Session) onProgress(path string, runningSize uint64) {
	now := s.cfg.now()
	s.lastProgress.Store(now.UnixNano())

	s.publish(ProgressEvent{BaseEvent: base(EventProgress, now), Path: path, RunningSize: runningSize})
}

func (s *Session) onWarning(w dirsize.Warning) {
	s.cfg.log.Warn().Str("path", w.Path).Str("status", w.Status.String()).Msg(w.Message)

	s.publish(WarningEvent{BaseEvent: base(EventWarning, s.cfg.now()), Warning: w})
}

// publish sends a best-effort event, dropping it when the consumer is behind.
// Capacity for the terminal and finished events is always kept free.
func (s *Session) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.events) >= cap(s.events)-reserved {
		s.dropped.Add(1)

		return
	}

	s.events <- e
}

func (s *Session) cancelled(reason string) Event {
	return CancelledEvent{BaseEvent: base(EventCancelled, s.cfg.now()), Reason: reason}
}

func (s *Session) failed(kind ErrorKind, message string) Event {
	s.cfg.log.Debug().Str("kind", string(kind)).Msg(message)

	return FailedEvent{BaseEvent: base(EventFailed, s.cfg.now()), Kind: kind, Message: message}
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() zerolog.Logger {
	return s.cfg.log
}
