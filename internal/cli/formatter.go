package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/dirsize/internal/dirsize"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// Report is the result of a tree scan as printed by the json output.
type Report struct {
	Tree     *dirsize.Node          `json:"tree"`
	Statuses map[dirsize.Status]int `json:"statuses"`
	Elapsed  time.Duration          `json:"elapsed"`
}

// NewReport summarizes tree.
func NewReport(tree *dirsize.Node, elapsed time.Duration) Report {
	return Report{
		Tree:     tree,
		Statuses: tree.Count(),
		Elapsed:  elapsed,
	}
}

// PrintJSON outputs v in indented JSON format.
func PrintJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(total)
}

// PrintTable outputs the largest directories and totals in human-readable table format.
func PrintTable(report Report, top int, minSize uint64, writer io.Writer) error {
	tree := report.Tree
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	largest := slices.DeleteFunc(tree.Largest(top), func(n *dirsize.Node) bool {
		return n.Size < minSize
	})

	fmt.Fprintln(w, "\nTop directories:\t\t")

	for i, n := range largest {
		fmt.Fprintf(w, "  %d) '%s'\t%s\t(%.1f%%)\n",
			i+1, n.Path, humanize.IBytes(n.Size), percent(n.Size, tree.Size))
	}

	if skipped := statusLines(report.Statuses, true); len(skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped:\t\t")

		for _, line := range skipped {
			fmt.Fprintln(w, line)
		}
	}

	if unreadable := statusLines(report.Statuses, false); len(unreadable) > 0 {
		fmt.Fprintln(w, "\nUnreadable:\t\t")

		for _, line := range unreadable {
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total directories:\t%d\n", report.Statuses[dirsize.StatusNormal])
	fmt.Fprintf(w, "Total files:\t%d\n", tree.Files)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", humanize.IBytes(tree.Size), tree.Size)

	if !tree.ModTime.IsZero() {
		fmt.Fprintf(w, "Last modified:\t%s\n", humanize.Time(tree.ModTime))
	}

	if tree.HasDescendantAccessDenied {
		fmt.Fprintln(w, "Note:\tsome directories could not be read, totals are a lower bound")
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}

// statusLines lists the non-normal statuses present in counts in enum order,
// either the deliberately skipped ones or the ones that failed to read.
func statusLines(counts map[dirsize.Status]int, skipped bool) []string {
	var lines []string

	for status := dirsize.StatusAccessDenied; status <= dirsize.StatusError; status++ {
		if status.Skipped() != skipped {
			continue
		}

		if n := counts[status]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %s:\t%d", status, n))
		}
	}

	return lines
}

// PrintTree outputs the tree indented by depth. Directories smaller than minSize
// are omitted together with their subtrees, unless they carry a non-normal status.
func PrintTree(tree *dirsize.Node, minSize uint64, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	tree.Walk(func(n *dirsize.Node, depth int) bool {
		if depth > 0 && n.Status == dirsize.StatusNormal && n.Size < minSize {
			return false
		}

		fmt.Fprintf(w, "%s%s\t%s\t%s\n", strings.Repeat("  ", depth), n.Name, humanize.IBytes(n.Size), label(n))

		return true
	})

	return w.Flush()
}

func label(n *dirsize.Node) string {
	switch {
	case n.Status == dirsize.StatusError && n.Message != "":
		return fmt.Sprintf("[%s: %s]", n.Status, n.Message)
	case n.Status != dirsize.StatusNormal:
		return fmt.Sprintf("[%s]", n.Status)
	case n.HasDescendantAccessDenied:
		return "[partial]"
	default:
		return ""
	}
}

// PrintSummary outputs a flat measurement in human-readable table format.
func PrintSummary(summary dirsize.Summary, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintf(w, "Path:\t%s\n", summary.Path)
	fmt.Fprintf(w, "Total files:\t%d\n", summary.Files)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", humanize.IBytes(summary.Bytes), summary.Bytes)

	if !summary.LastModified.IsZero() {
		fmt.Fprintf(w, "Last modified:\t%s\n", humanize.Time(summary.LastModified))
	}

	if summary.AccessDenied {
		fmt.Fprintln(w, "Note:\tsome directories could not be read, totals are a lower bound")
	}

	if summary.Errors > 0 {
		fmt.Fprintf(w, "Errors:\t%d\n", summary.Errors)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", summary.Elapsed)

	return w.Flush()
}
