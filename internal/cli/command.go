// Package cli implements the dirsize command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/idelchi/dirsize/internal/dirsize"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"table", "json", "tree"}

// Options holds the parsed command line.
type Options struct {
	Path           string
	Timeout        uint
	NoTimeout      bool
	Depth          uint
	ShowDenied     bool
	IncludeNetwork bool
	IncludeCloud   bool
	Output         string
	Top            int
	MinSize        uint64
	Flat           bool
	Debug          bool
}

// Scan converts the command line into scan options.
func (o Options) Scan() dirsize.Options {
	return dirsize.Options{
		TimeoutEnabled:   !o.NoTimeout,
		MaxDepth:         o.Depth,
		SkipAccessDenied: !o.ShowDenied,
		SkipNetwork:      !o.IncludeNetwork,
		SkipCloud:        !o.IncludeCloud,
	}.WithTimeoutSeconds(o.Timeout)
}

// Validate checks the flag combination.
func (o Options) Validate() error {
	if !slices.Contains(allowedOutputs, o.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowedOutputs)
	}

	if o.Top < 0 {
		return errors.New("top cannot be negative")
	}

	if !o.NoTimeout && o.Timeout == 0 {
		return errors.New("timeout must be positive, use --no-timeout to disable it")
	}

	return nil
}

// Execute runs the CLI with the process arguments. An interrupt cancels the running scan.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// Command builds the root command writing results to stdout and diagnostics to stderr.
func (c CLI) Command(stdout, stderr io.Writer) *cobra.Command {
	var (
		options    Options
		minSizeStr string
	)

	cmd := &cobra.Command{
		Use:   "dirsize [flags] [path]",
		Short: "Report the size of every directory below a path",
		Long: heredoc.Doc(`
			dirsize walks a directory and reports the aggregate size of every subdirectory.

			Directories that cannot be read, that sit on network mounts, or that are
			cloud-sync folders (OneDrive, Dropbox, iCloud Drive, ...) are reported with a
			status instead of a size. Subtrees that stop making progress for longer than
			the timeout are abandoned, and the whole scan is cancelled if nothing moves
			for twice the timeout.

			Use --flat for a single parallel total without building the tree.

			Positional Arguments:
			  path    Directory to analyze. Defaults to the current directory.
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = "."
			if len(args) > 0 {
				options.Path = args[0]
			}

			size, err := humanize.ParseBytes(minSizeStr)
			if err != nil {
				return fmt.Errorf("invalid min-size: %w", err)
			}

			options.MinSize = size

			if err := options.Validate(); err != nil {
				return err
			}

			return logic(cmd.Context(), options, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.UintVar(&options.Timeout, "timeout", uint(dirsize.DefaultTimeout.Seconds()), "Seconds without progress before a subtree is abandoned")
	flags.BoolVar(&options.NoTimeout, "no-timeout", false, "Never abandon slow subtrees")
	flags.UintVarP(&options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.BoolVar(&options.ShowDenied, "show-denied", false, "Warn about every directory that cannot be read")
	flags.BoolVar(&options.IncludeNetwork, "include-network", false, "Descend into directories on network mounts")
	flags.BoolVar(&options.IncludeCloud, "include-cloud", false, "Descend into cloud-sync folders")
	flags.StringVarP(&options.Output, "output", "o", "table", "Output format: table, json or tree")
	flags.IntVarP(&options.Top, "top", "t", 10, "Number of largest directories to display")
	flags.StringVar(&minSizeStr, "min-size", "0B", "Hide directories smaller than this (e.g., 10MB)")
	flags.BoolVar(&options.Flat, "flat", false, "Only measure the total size, without building the tree")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")

	return cmd
}
