package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/idelchi/dirsize/internal/classify"
	"github.com/idelchi/dirsize/internal/dirsize"
	"github.com/idelchi/dirsize/internal/logging"
	"github.com/idelchi/dirsize/internal/session"
)

// progressInterval throttles redraws of the status line.
const progressInterval = 100 * time.Millisecond

// statusLine renders in-place progress on a terminal.
type statusLine struct {
	out  io.Writer
	last time.Time
}

func newStatusLine(out io.Writer) *statusLine {
	// Hide cursor for in-place updates.
	fmt.Fprint(out, "\033[?25l")

	return &statusLine{out: out}
}

func (s *statusLine) update(msg string) {
	if now := time.Now(); now.Sub(s.last) >= progressInterval {
		s.last = now
		fmt.Fprintf(s.out, "\r\033[2K%s\r", msg)
	}
}

func (s *statusLine) clear() {
	fmt.Fprint(s.out, "\r\033[2K\r\033[?25h")
}

func logic(ctx context.Context, options Options, stdout, stderr io.Writer) error {
	log := logging.New(stderr, options.Debug)

	path, err := filepath.Abs(options.Path)
	if err != nil {
		return fmt.Errorf("resolving path %q: %w", options.Path, err)
	}

	var line *statusLine

	if options.Output != "json" && !options.Debug && logging.IsTerminal(stderr) {
		line = newStatusLine(stderr)
	}

	if options.Flat {
		return measure(ctx, path, options, line, log, stdout)
	}

	return scan(ctx, path, options, line, log, stdout)
}

func scan(ctx context.Context, path string, options Options, line *statusLine, log zerolog.Logger, stdout io.Writer) error {
	s := session.Start(ctx, path, options.Scan(),
		session.WithClassifier(classify.New()),
		session.WithLogger(log),
	)

	stop := context.AfterFunc(ctx, s.Cancel)
	defer stop()

	var outcome session.Event

	for event := range s.Events() {
		switch e := event.(type) {
		case session.ProgressEvent:
			if line != nil {
				line.update(fmt.Sprintf("Scanning… %s %s", humanize.IBytes(e.RunningSize), e.Path))
			}
		case session.CompletedEvent, session.CancelledEvent, session.FailedEvent:
			outcome = e
		}
	}

	if line != nil {
		line.clear()
	}

	if dropped := s.DroppedEvents(); dropped > 0 {
		sessionLog := s.Logger()
		sessionLog.Debug().Int64("dropped", dropped).Msg("progress events dropped")
	}

	switch e := outcome.(type) {
	case session.CompletedEvent:
		report := NewReport(e.Tree, e.Elapsed)

		switch options.Output {
		case "json":
			return PrintJSON(report, stdout)
		case "tree":
			return PrintTree(e.Tree, options.MinSize, stdout)
		default:
			return PrintTable(report, options.Top, options.MinSize, stdout)
		}
	case session.CancelledEvent:
		return fmt.Errorf("%w: %s", dirsize.ErrCancelled, e.Reason)
	case session.FailedEvent:
		return fmt.Errorf("scan failed (%s): %s", e.Kind, e.Message)
	default:
		return fmt.Errorf("scan ended without an outcome: %v", outcome)
	}
}

func measure(ctx context.Context, path string, options Options, line *statusLine, log zerolog.Logger, stdout io.Writer) error {
	opts := dirsize.MeasureOptions{Logger: &log}

	if line != nil {
		opts.Progress = func(files, bytes uint64) {
			line.update(fmt.Sprintf("Scanning… %d files, %s", files, humanize.IBytes(bytes)))
		}
	}

	summary, err := dirsize.Measure(ctx, path, opts)

	if line != nil {
		line.clear()
	}

	if err != nil {
		return err
	}

	if options.Output == "json" {
		return PrintJSON(summary, stdout)
	}

	return PrintSummary(summary, stdout)
}
