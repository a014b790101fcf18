// Package output renders run reports as text, JSON, or a table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/pipeline"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/table"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	colorize bool
}

// New creates a new output Writer. Colour follows ColorAuto.
func New(w io.Writer, format Format) *Writer {
	return NewWithColor(w, format, ColorAuto)
}

// NewWithColor creates a Writer with an explicit colour mode.
func NewWithColor(w io.Writer, format Format, mode ColorMode) *Writer {
	return &Writer{w: w, format: format, colorize: shouldColorize(mode, w)}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Preview limits how many kept and removed blocks a report lists.
type Preview struct {
	Kept    int
	Removed int
}

// WriteMergeReport renders the result of a merge run.
func (wr *Writer) WriteMergeReport(r pipeline.Report, p Preview) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(r)
	case FormatTable:
		return wr.writeMergeTable(r, p)
	default:
		return wr.writeMergeText(r, p)
	}
}

func (wr *Writer) writeMergeText(r pipeline.Report, p Preview) error {
	for _, msg := range r.SkippedErrors {
		fmt.Fprintln(wr.w, wr.paint(colorYellow, "skipped: "+msg))
	}

	if r.Removed > 0 {
		fmt.Fprintf(wr.w, "Removed %d contained blocks:\n", r.Removed)
		for _, b := range head(r.RemovedBlocks, p.Removed) {
			fmt.Fprintln(wr.w, wr.paint(colorGray, "  - "+b.Literal))
		}
		if extra := r.Removed - p.Removed; extra > 0 {
			fmt.Fprintf(wr.w, "  ... and %d more\n", extra)
		}
	} else {
		fmt.Fprintln(wr.w, "No contained blocks to remove")
	}

	fmt.Fprintln(wr.w)
	fmt.Fprintln(wr.w, "Done!")
	fmt.Fprintf(wr.w, "- Original lines: %d\n", r.Original)
	fmt.Fprintf(wr.w, "- After dedup: %d\n", r.Deduplicated)
	if r.Skipped > 0 {
		fmt.Fprintf(wr.w, "- Skipped: %d\n", r.Skipped)
	}
	fmt.Fprintf(wr.w, "- After merge: %d\n", r.Merged)
	fmt.Fprintf(wr.w, "- Covered addresses: %d\n", r.Covered)
	fmt.Fprintf(wr.w, "- Saved to: %s\n", r.OutputPath)

	kept := head(r.Kept, p.Kept)
	if len(kept) > 0 {
		fmt.Fprintf(wr.w, "\nFirst %d records:\n", len(kept))
		for i, b := range kept {
			fmt.Fprintf(wr.w, "  %d. %s\n", i+1, b.Literal)
		}
	}

	return nil
}

func (wr *Writer) writeMergeTable(r pipeline.Report, p Preview) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintln(tw, "------\t-----")
	fmt.Fprintf(tw, "input\t%s\n", r.InputPath)
	fmt.Fprintf(tw, "output\t%s\n", r.OutputPath)
	fmt.Fprintf(tw, "strategy\t%s\n", r.Strategy)
	fmt.Fprintf(tw, "original\t%d\n", r.Original)
	fmt.Fprintf(tw, "deduplicated\t%d\n", r.Deduplicated)
	fmt.Fprintf(tw, "skipped\t%d\n", r.Skipped)
	fmt.Fprintf(tw, "merged\t%d\n", r.Merged)
	fmt.Fprintf(tw, "removed\t%d\n", r.Removed)
	fmt.Fprintf(tw, "covered\t%d\n", r.Covered)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "#\tBLOCK\tSTATUS")
	fmt.Fprintln(tw, "-\t-----\t------")
	for i, b := range head(r.Kept, p.Kept) {
		fmt.Fprintf(tw, "%d\t%s\tkept\n", i+1, b.Literal)
	}
	for i, b := range head(r.RemovedBlocks, p.Removed) {
		fmt.Fprintf(tw, "%d\t%s\tremoved\n", i+1, b.Literal)
	}

	return tw.Flush()
}

// CountReport summarises a count run.
type CountReport struct {
	Files     int         `json:"files"`
	Failed    int         `json:"failed"`
	Lines     int         `json:"lines"`
	Addresses int         `json:"addresses"`
	Output    string      `json:"output"`
	Top       []table.Row `json:"top"`
}

// WriteCountReport renders the result of a count run.
func (wr *Writer) WriteCountReport(r CountReport) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(r)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tIP\tCOUNT\tLOCATION")
		fmt.Fprintln(tw, "----\t--\t-----\t--------")
		for i, row := range r.Top {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, row.IP, row.Count, row.Location)
		}
		return tw.Flush()
	}

	fmt.Fprintf(wr.w, "Processed %d log files", r.Files)
	if r.Failed > 0 {
		fmt.Fprint(wr.w, wr.paint(colorYellow, fmt.Sprintf(" (%d failed)", r.Failed)))
	}
	fmt.Fprintln(wr.w)
	fmt.Fprintf(wr.w, "Found %d distinct addresses in %d lines\n", r.Addresses, r.Lines)
	fmt.Fprintf(wr.w, "Saved to: %s\n", r.Output)

	if len(r.Top) > 0 {
		fmt.Fprintf(wr.w, "\nTop %d by hits:\n", len(r.Top))
		for i, row := range r.Top {
			fmt.Fprintf(wr.w, "%d. %s - %d hits - %s\n", i+1, row.IP, row.Count, row.Location)
		}
	}
	return nil
}

// FilterReport summarises a filter run.
type FilterReport struct {
	Input      string   `json:"input"`
	Rows       int      `json:"rows"`
	Matched    int      `json:"matched"`
	Output     string   `json:"output"`
	CIDROutput string   `json:"cidr_output"`
	CIDR24     []string `json:"cidr24"`
	CIDR16     []string `json:"cidr16"`
}

// WriteFilterReport renders the result of a filter run.
func (wr *Writer) WriteFilterReport(r FilterReport) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(r)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "METRIC\tVALUE")
		fmt.Fprintln(tw, "------\t-----")
		fmt.Fprintf(tw, "rows\t%d\n", r.Rows)
		fmt.Fprintf(tw, "matched\t%d\n", r.Matched)
		fmt.Fprintf(tw, "/24 prefixes\t%d\n", len(r.CIDR24))
		fmt.Fprintf(tw, "/16 prefixes\t%d\n", len(r.CIDR16))
		fmt.Fprintf(tw, "output\t%s\n", r.Output)
		fmt.Fprintf(tw, "cidr output\t%s\n", r.CIDROutput)
		return tw.Flush()
	}

	fmt.Fprintln(wr.w, "Filter complete:")
	fmt.Fprintf(wr.w, "- Matching addresses: %d of %d\n", r.Matched, r.Rows)
	fmt.Fprintf(wr.w, "- Prefixes: %d /24, %d /16\n", len(r.CIDR24), len(r.CIDR16))
	fmt.Fprintf(wr.w, "- Filtered rows: %s\n", r.Output)
	fmt.Fprintf(wr.w, "- CIDR list: %s\n", r.CIDROutput)
	return nil
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
