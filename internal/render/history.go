package render

import (
	"github.com/joss/xbrlgraph/internal/store"
)

// History renders run-history output.
type History struct {
	*Writer
}

// NewHistory creates a History renderer writing to w.
func NewHistory(w *Writer) *History {
	return &History{Writer: w}
}

// Runs renders a list of runs, newest first as given.
func (h *History) Runs(runs []*store.Run) {
	if len(runs) == 0 {
		h.Empty("No runs found")
		return
	}

	h.Header("RUN HISTORY (%d runs)", len(runs))

	for _, r := range runs {
		h.Println("%s [%s] %s %s (%s)",
			StatusIcon(r.Status),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.CIK,
			Truncate(r.ReportID, 30),
			FormatDuration(r.Duration),
		)
		h.Item("facts=%d primary=%d nodes=%d edges=%d calc=%d/%d",
			r.Facts, r.Primary, r.Nodes, r.Edges, r.Matched, r.Matched+r.Mismatched)
		if r.Error != "" {
			h.Nested("%s", Truncate(r.Error, 70))
		}
	}
}

// Run renders one run with its networks.
func (h *History) Run(r *store.Run) {
	h.Header("RUN %s", r.ID)

	h.Field("Status", "%s %s", StatusIcon(r.Status), r.Status)
	h.Field("Batch", "%s", r.RunID)
	h.Field("Report", "%s / %s", r.CIK, r.ReportID)
	h.Field("Document", "%s", r.DocumentURI)
	h.Field("Started", "%s", r.StartedAt.Format("2006-01-02 15:04:05"))
	h.Field("Duration", "%s", FormatDuration(r.Duration))
	h.Field("Facts", "%d (primary %d, duplicates %d)", r.Facts, r.Primary, r.Duplicates)
	h.Field("Graph", "%d nodes, %d edges", r.Nodes, r.Edges)
	if r.Error != "" {
		h.Field("Error", "%s", r.Error)
	}

	if len(r.Networks) > 0 {
		h.Section("NETWORKS")
		for _, n := range r.Networks {
			h.Item("%s", Truncate(n.Name, 60))
			h.Nested("valid %d/%d rejected %d calc %d/%d",
				n.Valid, n.Candidates, n.Rejected, n.Matched, n.Matched+n.Mismatched)
		}
	}
}
