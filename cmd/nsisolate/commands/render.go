package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/nsisolate/pkg/isolate"
)

type renderOptions struct {
	prefix string
	diff   bool
	quiet  bool
}

// renderReport prints diffs, failures and the summary table of a run.
func renderReport(out io.Writer, report *isolate.Report, opts renderOptions) {
	if opts.diff {
		for _, res := range report.Results {
			if res.Diff != "" {
				fmt.Fprint(out, res.Diff)
			}
		}
	}

	for _, res := range report.Failures() {
		color.New(color.FgRed).Fprintf(out, "FAILED %s: %v\n", relPath(report.Root, res.Path), res.Err)
	}

	if opts.quiet {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("nsisolate: %s", report.Root)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Prefix", opts.prefix},
		{"Files scanned", humanize.Comma(int64(report.Scanned))},
		{"Files changed", humanize.Comma(int64(report.Changed))},
		{"Files failed", humanize.Comma(int64(report.Failed))},
		{"Size before", humanize.Bytes(uint64(max(report.BytesBefore, 0)))},
		{"Size after", humanize.Bytes(uint64(max(report.BytesAfter, 0)))},
		{"Duration", report.Duration.Round(time.Millisecond).String()},
	})
	tbl.Render()

	switch {
	case report.Failed > 0:
		color.New(color.FgYellow).Fprintf(out, "%d file(s) could not be processed\n", report.Failed)
	case report.DryRun:
		color.New(color.FgCyan).Fprintf(out, "Dry run: %d file(s) would change\n", report.Changed)
	default:
		color.New(color.FgGreen).Fprintf(out, "Isolated %d file(s) under %s\n", report.Changed, opts.prefix)
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}

	return rel
}
