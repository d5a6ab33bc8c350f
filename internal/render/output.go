package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/xbrlgraph/internal/ingest"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Renderer formats pipeline output.
type Renderer struct {
	pretty bool
}

// New creates a renderer. pretty enables color and box drawing.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Summary formats one processed report.
func (r *Renderer) Summary(sum *ingest.Summary) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("%s  %s\n", sum.CIK, sum.ReportID))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	} else {
		fmt.Fprintf(&sb, "cik=%s report=%s\n", sum.CIK, sum.ReportID)
	}

	fmt.Fprintf(&sb, "  facts: %d (primary %d, duplicates %d)\n",
		sum.Report.Facts, sum.Report.Primary, sum.Report.Duplicates)
	if misses := sum.Report.MissingConcept + sum.Report.MissingContext + sum.Report.MissingUnit; misses > 0 {
		fmt.Fprintf(&sb, "  lookup misses: concept=%d context=%d unit=%d\n",
			sum.Report.MissingConcept, sum.Report.MissingContext, sum.Report.MissingUnit)
	}

	for _, n := range sum.Networks {
		r.formatNetwork(&sb, n)
	}

	calc := fmt.Sprintf("matched=%d mismatched=%d skipped=%d",
		sum.Calculation.Matched, sum.Calculation.Mismatched, sum.Calculation.Skipped)
	if r.pretty && sum.Calculation.Mismatched > 0 {
		calc = color.YellowString(calc)
	}
	fmt.Fprintf(&sb, "  calculation: %s\n", calc)

	written := "planned"
	if sum.Written {
		written = "written"
	}
	fmt.Fprintf(&sb, "  graph: %d nodes, %d edges %s (%s)\n", sum.Nodes, sum.Edges, written, FormatDuration(sum.Duration))
	return sb.String()
}

func (r *Renderer) formatNetwork(sb *strings.Builder, n ingest.NetworkSummary) {
	v := n.Validation()
	name := Truncate(n.Name, 56)
	if r.pretty {
		name = color.HiBlackString(name)
	}
	fmt.Fprintf(sb, "  %s\n", name)
	fmt.Fprintf(sb, "    valid %d/%d", v.Valid, v.Candidates)
	if n.Hypercubes > 0 {
		fmt.Fprintf(sb, "  hypercubes %d", n.Hypercubes)
	}
	if n.Matched+n.Mismatched > 0 {
		fmt.Fprintf(sb, "  calc %s%d %s%d", StatusIcon("matched"), n.Matched, StatusIcon("mismatched"), n.Mismatched)
	}
	sb.WriteString("\n")
	for _, reason := range ingest.SortedReasons(v.Reasons) {
		line := fmt.Sprintf("%s=%d", reason, v.Reasons[reason])
		if r.pretty {
			line = color.RedString(line)
		}
		fmt.Fprintf(sb, "    └─ %s\n", line)
	}
}

// Batch formats the outcome of a batch run.
func (r *Renderer) Batch(res *ingest.BatchResult) string {
	var sb strings.Builder
	for _, item := range res.Results {
		if item.Err != nil {
			mark := StatusIcon("error")
			if r.pretty {
				mark = color.RedString(mark)
			}
			fmt.Fprintf(&sb, "%s %s: %v\n", mark, item.Job.Name(), item.Err)
			continue
		}
		sb.WriteString(r.Summary(item.Summary))
		sb.WriteString("\n")
	}

	ok := len(res.Results) - res.Failed()
	footer := fmt.Sprintf("run %s: %d ok, %d failed", res.RunID, ok, res.Failed())
	if r.pretty {
		if res.Failed() > 0 {
			footer = color.RedString(footer)
		} else {
			footer = color.GreenString(footer)
		}
	}
	sb.WriteString(footer + "\n")
	return sb.String()
}

// Categories formats classifier counts in declaration order, skipping
// empty categories.
func (r *Renderer) Categories(counts map[taxonomy.Category]int) string {
	var sb strings.Builder
	total := 0
	for _, c := range taxonomy.Categories {
		n := counts[c]
		if n == 0 {
			continue
		}
		total += n
		label := string(c)
		if r.pretty {
			label = color.CyanString("%-12s", label)
		} else {
			label = fmt.Sprintf("%-12s", label)
		}
		fmt.Fprintf(&sb, "  %s %d\n", label, n)
	}
	fmt.Fprintf(&sb, "  %-12s %d\n", "total", total)
	return sb.String()
}

// Reasons formats rejection totals, largest first.
func (r *Renderer) Reasons(reasons map[string]int) string {
	if len(reasons) == 0 {
		return "no rejections\n"
	}
	keys := ingest.SortedReasons(reasons)
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-*s %d\n", width, k, reasons[k])
	}
	return sb.String()
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
