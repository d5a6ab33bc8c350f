package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/config"
	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/graph"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/materialize"
	"github.com/joss/xbrlgraph/internal/metrics"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/store"
	"github.com/joss/xbrlgraph/internal/testutil"
	"github.com/joss/xbrlgraph/internal/validate"
)

type runLog struct {
	mu   sync.Mutex
	runs []*store.Run
}

func (r *runLog) SaveRun(_ context.Context, run *store.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

type failingSink struct{ err error }

func (f failingSink) WriteNodes(context.Context, materialize.NodeBatch) error { return f.err }
func (f failingSink) WriteEdges(context.Context, materialize.EdgeBatch) error { return f.err }

var meta = report.Meta{CIK: testutil.CIK, ReportID: testutil.ReportID}

func newPipeline(opts ...Option) *Pipeline {
	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	return NewPipeline(config.Default(), opts...)
}

func findNetwork(t *testing.T, sum *Summary, uri string) NetworkSummary {
	t.Helper()
	for _, n := range sum.Networks {
		if n.URI == uri {
			return n
		}
	}
	t.Fatalf("network %s not in summary", uri)
	return NetworkSummary{}
}

func TestProcessRevenueFiling(t *testing.T) {
	sink := graph.NewMemorySink()
	hist := &runLog{}
	p := newPipeline(WithSink(sink), WithHistory(hist))

	sum, err := p.Process(context.Background(), testutil.RevenueFiling("100"), meta)
	require.NoError(t, err)

	assert.Equal(t, testutil.CIK, sum.CIK)
	assert.Equal(t, testutil.ReportID, sum.ReportID)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Report.Facts)
	assert.True(t, sum.Written)

	income := findNetwork(t, sum, testutil.RoleIncome)
	require.NotNil(t, income.Presentation)
	require.NotNil(t, income.Calculation)
	assert.Equal(t, 3, income.Presentation.Valid)
	assert.Equal(t, 1, income.Matched)
	assert.Equal(t, 1, sum.Calculation.Matched)

	assert.Equal(t, 3, sink.NodeCount(domain.NodeFact))
	assert.Equal(t, 2, sink.EdgeCount(domain.RelCalculationEdge))
	assert.Equal(t, 1, sink.NodeCount(domain.NodeReport))

	require.Len(t, hist.runs, 1)
	run := hist.runs[0]
	assert.Equal(t, store.RunOK, run.Status)
	assert.Equal(t, sum.RunID, run.RunID)
	assert.Equal(t, sum.Nodes, run.Nodes)
	require.Len(t, run.Networks, 1)
	assert.Equal(t, 1, run.Networks[0].Matched)
}

func TestProcessMismatchWritesNoCalculationEdges(t *testing.T) {
	sink := graph.NewMemorySink()
	sum, err := newPipeline(WithSink(sink)).Process(context.Background(), testutil.RevenueFiling("90"), meta)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Calculation.Mismatched)
	assert.Zero(t, sink.EdgeCount(domain.RelCalculationEdge))
	assert.Equal(t, 3, sink.NodeCount(domain.NodeFact))
}

func TestToleranceOverride(t *testing.T) {
	p := newPipeline(WithTolerance(decimal.RequireFromString("0.05"), decimal.NewFromInt(1)))
	sum, err := p.Process(context.Background(), testutil.RevenueFiling("90"), meta)
	require.NoError(t, err)

	// |300 - 290| / 300 is about 3.3%.
	assert.Equal(t, 1, sum.Calculation.Matched)
	assert.False(t, sum.Written)
	assert.NotZero(t, sum.Nodes)
}

func TestProcessSegmentRejections(t *testing.T) {
	sum, err := newPipeline().Process(context.Background(),
		testutil.SegmentFiling(testutil.SegmentOptions{Closed: true}), meta)
	require.NoError(t, err)

	seg := findNetwork(t, sum, testutil.RoleSegments)
	assert.Equal(t, 1, seg.Hypercubes)
	require.NotNil(t, seg.Presentation)
	assert.Equal(t, 2, seg.Presentation.Valid)
	assert.Equal(t, 1, seg.Presentation.Reasons[string(validate.ReasonMissingDimension)])
	assert.Equal(t, 1, sum.Reasons()[string(validate.ReasonMissingDimension)])
	assert.NotZero(t, sum.Dimensions)
}

func TestProcessRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, reg)
	p := newPipeline(WithMetrics(m), WithSink(graph.NewMemorySink()))

	_, err := p.Process(context.Background(), testutil.RevenueFiling("100"), meta)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.ReportsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CalculationTotal.WithLabelValues("matched")))
	assert.Equal(t, 6.0, promtest.ToFloat64(m.FactsTotal.WithLabelValues("valid")))
}

func TestProcessWriteFailure(t *testing.T) {
	hist := &runLog{}
	boom := errors.New("connection refused")
	p := newPipeline(WithSink(failingSink{err: boom}), WithHistory(hist))

	sum, err := p.Process(context.Background(), testutil.RevenueFiling("100"), meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, sum.Written)

	require.Len(t, hist.runs, 1)
	assert.Equal(t, store.RunError, hist.runs[0].Status)
	assert.Contains(t, hist.runs[0].Error, "connection refused")
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := graph.NewMemorySink()

	_, err := newPipeline(WithSink(sink)).Process(ctx, testutil.RevenueFiling("100"), meta)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.NodeCount(domain.NodeFact))
}

func TestProcessUsesRunIDFromContext(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "run-42")
	sum, err := newPipeline().Process(ctx, testutil.RevenueFiling("100"), meta)
	require.NoError(t, err)
	assert.Equal(t, "run-42", sum.RunID)
}

func TestDimensionGraphIsCachedPerFiler(t *testing.T) {
	p := newPipeline()
	ctx := context.Background()

	_, err := p.Process(ctx, testutil.SegmentFiling(testutil.SegmentOptions{}), meta)
	require.NoError(t, err)
	_, err = p.Process(ctx, testutil.SegmentFiling(testutil.SegmentOptions{}),
		report.Meta{CIK: testutil.CIK, ReportID: "second"})
	require.NoError(t, err)
	_, err = p.Process(ctx, testutil.SegmentFiling(testutil.SegmentOptions{}),
		report.Meta{CIK: "0000789019", ReportID: "other"})
	require.NoError(t, err)

	assert.Equal(t, 2, p.Dimensions().Len())
	assert.Equal(t, 2, p.Dimensions().Builds())
}

func TestProcessWithHistoryStore(t *testing.T) {
	h, err := store.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()

	sum, err := newPipeline(WithHistory(h)).Process(context.Background(), testutil.RevenueFiling("100"), meta)
	require.NoError(t, err)

	runs, err := h.ListRuns(context.Background(), store.DefaultFilter().WithWhere("report_id", testutil.ReportID))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sum.RunID, runs[0].RunID)
	assert.Equal(t, 3, runs[0].Facts)
}

func TestSortedReasons(t *testing.T) {
	got := SortedReasons(map[string]int{"b": 1, "a": 1, "c": 5})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
