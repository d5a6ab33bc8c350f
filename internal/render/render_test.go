package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/ingest"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/store"
	"github.com/joss/xbrlgraph/internal/taxonomy"
	"github.com/joss/xbrlgraph/internal/validate"
)

func sampleSummary() *ingest.Summary {
	return &ingest.Summary{
		RunID:    "run-1",
		CIK:      "0000320193",
		ReportID: "0000320193-25-000008",
		Report:   report.Stats{Facts: 12, Primary: 10, Duplicates: 2, MissingUnit: 1},
		Networks: []ingest.NetworkSummary{{
			Name:       "200000 - Disclosure - Segment Revenue",
			Hypercubes: 1,
			Presentation: &ingest.ValidationSummary{
				Candidates: 3, Valid: 2, Rejected: 1,
				Reasons: map[string]int{"missing_dimension": 1},
			},
			Matched: 1,
		}},
		Calculation: validate.Stats{Matched: 1, Mismatched: 0},
		Nodes:       40,
		Edges:       55,
		Written:     true,
		Duration:    1500 * time.Millisecond,
	}
}

func TestSummaryPlain(t *testing.T) {
	out := New(false).Summary(sampleSummary())

	assert.Contains(t, out, "cik=0000320193 report=0000320193-25-000008")
	assert.Contains(t, out, "facts: 12 (primary 10, duplicates 2)")
	assert.Contains(t, out, "lookup misses: concept=0 context=0 unit=1")
	assert.Contains(t, out, "valid 2/3  hypercubes 1")
	assert.Contains(t, out, "└─ missing_dimension=1")
	assert.Contains(t, out, "matched=1 mismatched=0 skipped=0")
	assert.Contains(t, out, "40 nodes, 55 edges written (1.5s)")
}

func TestBatchListsFailures(t *testing.T) {
	res := &ingest.BatchResult{
		RunID: "run-1",
		Results: []ingest.Result{
			{Job: ingest.Job{Path: "good.yaml"}, Summary: sampleSummary()},
			{Job: ingest.Job{Path: "bad.yaml"}, Err: errors.New("decode snapshot")},
		},
	}
	out := New(false).Batch(res)
	assert.Contains(t, out, "✗ bad.yaml: decode snapshot")
	assert.Contains(t, out, "run run-1: 1 ok, 1 failed")
}

func TestCategories(t *testing.T) {
	out := New(false).Categories(map[taxonomy.Category]int{
		taxonomy.CategoryConcept:  4,
		taxonomy.CategoryAbstract: 1,
	})
	assert.Contains(t, out, "Concept      4")
	assert.Contains(t, out, "Abstract     1")
	assert.NotContains(t, out, "Hypercube")
	assert.Contains(t, out, "total        5")
}

func TestReasons(t *testing.T) {
	assert.Equal(t, "no rejections\n", New(false).Reasons(nil))
	out := New(false).Reasons(map[string]int{"closed_hypercube": 1, "invalid_member": 3})
	assert.Equal(t, "  invalid_member   3\n  closed_hypercube 1\n", out)
}

func TestHistoryRuns(t *testing.T) {
	var buf bytes.Buffer
	h := NewHistory(NewWriter(&buf))

	h.Runs(nil)
	assert.Equal(t, "No runs found\n", buf.String())

	buf.Reset()
	started := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	h.Runs([]*store.Run{
		{Status: store.RunOK, CIK: "0000320193", ReportID: "r1", StartedAt: started, Facts: 3, Matched: 1},
		{Status: store.RunError, CIK: "0000320193", ReportID: "r2", StartedAt: started, Error: "write r2: connection refused"},
	})
	out := buf.String()
	assert.Contains(t, out, "RUN HISTORY (2 runs)")
	assert.Contains(t, out, "✓ [2025-02-01 10:30:00] 0000320193 r1")
	assert.Contains(t, out, "└─ write r2: connection refused")
}

func TestHistoryRun(t *testing.T) {
	var buf bytes.Buffer
	NewHistory(NewWriter(&buf)).Run(&store.Run{
		ID: "01HZX", Status: store.RunOK, RunID: "batch",
		Networks: []store.NetworkRun{{Name: "100000 - Statement - Income", Candidates: 3, Valid: 3, Matched: 1}},
	})
	out := buf.String()
	assert.Contains(t, out, "RUN 01HZX")
	assert.Contains(t, out, "  Status:     ✓ ok\n")
	assert.Contains(t, out, "NETWORKS:")
	assert.Contains(t, out, "valid 3/3 rejected 0 calc 1/1")
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).JSON(map[string]int{"facts": 3}))
	assert.Equal(t, "{\n  \"facts\": 3\n}\n", buf.String())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "✓", StatusIcon("ok"))
	assert.Equal(t, "✗", StatusIcon("mismatched"))
	assert.Equal(t, "•", StatusIcon("other"))
	assert.Equal(t, "abc...", Truncate("abcdefghij", 6))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "Umsatzerlö...", Truncate("Umsatzerlöse gesamt", 13))
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}
