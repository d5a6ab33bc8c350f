// Package ingest runs filings through the full pipeline: report build,
// dimension graph, network discovery, fact validation, calculation
// reconciliation, materialization and the graph write.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joss/xbrlgraph/internal/config"
	"github.com/joss/xbrlgraph/internal/graph"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/materialize"
	"github.com/joss/xbrlgraph/internal/metrics"
	"github.com/joss/xbrlgraph/internal/network"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/store"
	"github.com/joss/xbrlgraph/internal/taxonomy"
	"github.com/joss/xbrlgraph/internal/validate"
)

// RunRecorder persists the outcome of a processed report.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

// ValidationSummary is the outcome of validating one hierarchy.
type ValidationSummary struct {
	Candidates int            `json:"candidates"`
	Valid      int            `json:"valid"`
	Rejected   int            `json:"rejected"`
	Reasons    map[string]int `json:"reasons,omitempty"`
}

func summarize(res *validate.Result) *ValidationSummary {
	if res == nil {
		return nil
	}
	s := &ValidationSummary{
		Candidates: res.Candidates,
		Valid:      len(res.Valid),
		Rejected:   res.RejectedTotal(),
	}
	if len(res.Rejected) > 0 {
		s.Reasons = make(map[string]int, len(res.Rejected))
		for reason, n := range res.Rejected {
			s.Reasons[string(reason)] = n
		}
	}
	return s
}

// NetworkSummary is the per-network part of a Summary.
type NetworkSummary struct {
	Name         string             `json:"name"`
	URI          string             `json:"uri"`
	Category     string             `json:"category"`
	Hypercubes   int                `json:"hypercubes"`
	Presentation *ValidationSummary `json:"presentation,omitempty"`
	Calculation  *ValidationSummary `json:"calculation,omitempty"`
	Matched      int                `json:"matched"`
	Mismatched   int                `json:"mismatched"`
}

// Validation returns the presentation summary, or the calculation summary
// for calculation-only networks.
func (n NetworkSummary) Validation() ValidationSummary {
	switch {
	case n.Presentation != nil:
		return *n.Presentation
	case n.Calculation != nil:
		return *n.Calculation
	}
	return ValidationSummary{}
}

// Summary describes one processed report.
type Summary struct {
	RunID       string           `json:"run_id"`
	CIK         string           `json:"cik"`
	ReportID    string           `json:"report_id"`
	DocumentURI string           `json:"document_uri"`
	Report      report.Stats     `json:"report"`
	Dimensions  int              `json:"dimensions"`
	Networks    []NetworkSummary `json:"networks"`
	Calculation validate.Stats   `json:"calculation"`
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	Written     bool             `json:"written"`
	Duration    time.Duration    `json:"duration"`
}

// Reasons totals rejection reasons across every network.
func (s *Summary) Reasons() map[string]int {
	out := make(map[string]int)
	for _, n := range s.Networks {
		for _, v := range []*ValidationSummary{n.Presentation, n.Calculation} {
			if v == nil {
				continue
			}
			for reason, c := range v.Reasons {
				out[reason] += c
			}
		}
	}
	return out
}

// Run converts the summary into a history row.
func (s *Summary) Run(status string, startedAt time.Time, err error) *store.Run {
	r := &store.Run{
		RunID:       s.RunID,
		CIK:         s.CIK,
		ReportID:    s.ReportID,
		DocumentURI: s.DocumentURI,
		Status:      status,
		StartedAt:   startedAt,
		Duration:    s.Duration,
		Facts:       s.Report.Facts,
		Primary:     s.Report.Primary,
		Duplicates:  s.Report.Duplicates,
		Nodes:       s.Nodes,
		Edges:       s.Edges,
		Matched:     s.Calculation.Matched,
		Mismatched:  s.Calculation.Mismatched,
	}
	if err != nil {
		r.Error = err.Error()
	}
	for _, n := range s.Networks {
		v := n.Validation()
		r.Networks = append(r.Networks, store.NetworkRun{
			Name:       n.Name,
			Candidates: v.Candidates,
			Valid:      v.Valid,
			Rejected:   v.Rejected,
			Matched:    n.Matched,
			Mismatched: n.Mismatched,
		})
	}
	return r
}

// Pipeline processes reports one at a time. It is safe for concurrent use;
// per-report state lives in Process.
type Pipeline struct {
	tolerance     decimal.Decimal
	zeroTolerance decimal.Decimal
	primaryOnly   bool

	sink    graph.Sink
	metrics *metrics.Metrics
	history RunRecorder
	dims    *DimensionCache
	log     *logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink sets where plans are written. Without a sink nothing is written.
func WithSink(s graph.Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithHistory records every processed report.
func WithHistory(h RunRecorder) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithTolerance overrides the reconciliation tolerances.
func WithTolerance(relative, zero decimal.Decimal) Option {
	return func(p *Pipeline) {
		p.tolerance = relative
		p.zeroTolerance = zero
	}
}

// WithDimensionCache shares a dimension cache between pipelines.
func WithDimensionCache(c *DimensionCache) Option {
	return func(p *Pipeline) { p.dims = c }
}

// NewPipeline creates a pipeline from cfg. A nil cfg uses config.Default.
func NewPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		tolerance:     cfg.Validation.Tolerance,
		zeroTolerance: cfg.Validation.ZeroTolerance,
		primaryOnly:   cfg.Validation.PrimaryOnly,
		log:           logging.New("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dims == nil {
		p.dims = NewDimensionCache()
	}
	return p
}

// Dimensions returns the pipeline's dimension cache.
func (p *Pipeline) Dimensions() *DimensionCache {
	return p.dims
}

// Process runs one report from source to sink. Lookup misses and
// construction failures are counted in the summary; only materialization
// and write failures are returned.
func (p *Pipeline) Process(ctx context.Context, src taxonomy.Source, meta report.Meta) (sum *Summary, err error) {
	start := time.Now()
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	log := p.log.Ctx(ctx)
	sum = &Summary{RunID: runID, DocumentURI: src.DocumentURI()}

	defer func() {
		sum.Duration = time.Since(start)
		rec := recover()
		if rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		p.finish(ctx, sum, start, err, log)
		if rec != nil {
			panic(rec)
		}
	}()

	rep := report.Build(src, meta, log)
	sum.CIK = rep.Meta.CIK
	sum.ReportID = rep.ID
	log = log.WithReport(rep.Meta.CIK, rep.ID)

	dims := p.dims.Get(rep.Meta.CIK, src, log)
	rep.ResolveMembers(dims)
	sum.Report = rep.Stats
	sum.Dimensions = dims.Len()

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	nets, _ := network.Discover(src, log)
	var opts []validate.Option
	opts = append(opts, validate.WithLogger(log))
	if p.primaryOnly {
		opts = append(opts, validate.WithFilter(rep.IsPrimary))
	}
	engine := validate.NewEngine(dims, opts...)
	rec := validate.NewReconciler(rep.Meta.CIK, rep.ID, p.tolerance, p.zeroTolerance, log)

	in := materialize.Input{Report: rep, Dimensions: dims}
	for _, n := range nets {
		nr := p.validateNetwork(src, n, rep, engine, rec, log)
		in.Networks = append(in.Networks, nr)
		sum.Networks = append(sum.Networks, networkSummary(nr))
	}
	sum.Calculation = rec.Stats()
	for i := range sum.Networks {
		if ns, ok := sum.Calculation.PerNetwork[sum.Networks[i].Name]; ok {
			sum.Networks[i].Matched = ns.Matched
			sum.Networks[i].Mismatched = ns.Mismatched
		}
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	plan, err := materialize.New(rep.Meta.CIK, rep.ID).Build(in)
	if err != nil {
		return sum, fmt.Errorf("materialize %s: %w", rep.ID, err)
	}
	sum.Nodes = plan.NodeCount()
	sum.Edges = plan.EdgeCount()

	if p.sink == nil {
		return sum, nil
	}
	if _, err := graph.WritePlan(ctx, p.sink, plan); err != nil {
		return sum, fmt.Errorf("write %s: %w", rep.ID, err)
	}
	sum.Written = true
	return sum, nil
}

func (p *Pipeline) validateNetwork(src taxonomy.Source, n *network.Network, rep *report.Report, engine *validate.Engine, rec *validate.Reconciler, log *logging.Logger) materialize.NetworkResult {
	n.Hypercubes, _ = network.BuildHypercubes(src, n, rep.Registry, engine.Dimensions(), log)
	nr := materialize.NetworkResult{Network: n}
	if n.IsPresentation() {
		n.Presentation = network.BuildPresentation(src, n, rep.Registry, log)
		nr.Presentation = engine.Validate(n, n.Presentation, rep.Registry)
		p.recordValidation(nr.Presentation)
	}
	if n.IsCalculation() {
		n.Calculation = network.BuildCalculation(src, n, rep.Registry, log)
		nr.Calculation = engine.Validate(n, n.Calculation, rep.Registry)
		p.recordValidation(nr.Calculation)
		var resolver validate.Chain
		if nr.Presentation != nil {
			resolver = append(resolver, nr.Presentation)
		}
		resolver = append(resolver, nr.Calculation, p.allFacts(rep))
		nr.Groups = rec.Reconcile(n, n.Calculation, resolver)
	}
	return nr
}

// allFacts is the last-resort resolver for reconciliation: every fact of
// the report, or every primary fact when validation is primary-only.
func (p *Pipeline) allFacts(rep *report.Report) validate.FactIndex {
	if p.primaryOnly {
		return validate.NewFactIndex(rep.PrimaryFacts())
	}
	return validate.NewFactIndex(rep.Facts())
}

func (p *Pipeline) recordValidation(res *validate.Result) {
	rejected := make(map[string]int, len(res.Rejected))
	for reason, n := range res.Rejected {
		rejected[string(reason)] = n
	}
	p.metrics.RecordValidation(len(res.Valid), rejected)
}

func networkSummary(nr materialize.NetworkResult) NetworkSummary {
	return NetworkSummary{
		Name:         nr.Network.Name,
		URI:          nr.Network.URI,
		Category:     string(nr.Network.Category),
		Hypercubes:   len(nr.Network.Hypercubes),
		Presentation: summarize(nr.Presentation),
		Calculation:  summarize(nr.Calculation),
	}
}

// finish records metrics and history for a run, successful or not.
func (p *Pipeline) finish(ctx context.Context, sum *Summary, start time.Time, err error, log *logging.Logger) {
	p.metrics.RecordReport(err == nil, sum.Duration)
	p.metrics.RecordCalculation(sum.Calculation.Matched, sum.Calculation.Mismatched, sum.Calculation.Skipped)

	status := store.RunOK
	if err != nil {
		status = store.RunError
		log.Error("report_failed", map[string]any{"document": sum.DocumentURI}, err)
	} else {
		log.TimedEvent("report_processed", start, map[string]any{
			"networks":   len(sum.Networks),
			"nodes":      sum.Nodes,
			"edges":      sum.Edges,
			"matched":    sum.Calculation.Matched,
			"mismatched": sum.Calculation.Mismatched,
			"written":    sum.Written,
		})
	}

	if p.history == nil {
		return
	}
	// The run is recorded even when ctx was cancelled.
	if herr := p.history.SaveRun(context.WithoutCancel(ctx), sum.Run(status, start, err)); herr != nil {
		log.Warn("history_save_failed", nil, herr)
	}
}

// SortedReasons returns reason names ordered by count, then name.
func SortedReasons(reasons map[string]int) []string {
	out := make([]string, 0, len(reasons))
	for r := range reasons {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if reasons[out[i]] != reasons[out[j]] {
			return reasons[out[i]] > reasons[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
