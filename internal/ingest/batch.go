package ingest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Job is one report to process. Either Path or Source must be set; Meta
// overrides what the loaded file carries when its fields are non-empty.
type Job struct {
	Path   string
	Source taxonomy.Source
	Meta   report.Meta
}

// Name identifies the job in logs and results.
func (j Job) Name() string {
	if j.Path != "" {
		return j.Path
	}
	if j.Source != nil {
		return j.Source.DocumentURI()
	}
	return j.Meta.ReportID
}

// Result is the outcome of one job.
type Result struct {
	Job     Job
	Summary *Summary
	Err     error
}

// BatchResult collects the results of RunBatch in job order.
type BatchResult struct {
	RunID   string
	Results []Result
}

// Failed counts jobs that returned an error.
func (b *BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Err joins job errors into one, or returns nil.
func (b *BatchResult) Err() error {
	if n := b.Failed(); n > 0 {
		return fmt.Errorf("%d of %d reports failed", n, len(b.Results))
	}
	return nil
}

func mergeMeta(base, override report.Meta) report.Meta {
	if override.CIK != "" {
		base.CIK = override.CIK
	}
	if override.ReportID != "" {
		base.ReportID = override.ReportID
	}
	if override.FormType != "" {
		base.FormType = override.FormType
	}
	if override.PeriodOfReport != "" {
		base.PeriodOfReport = override.PeriodOfReport
	}
	return base
}

// RunBatch processes independent reports with at most parallel running at
// once. A failing or panicking report does not stop the others; per-job
// errors are in the result. The returned error is non-nil only when ctx
// was cancelled.
func (p *Pipeline) RunBatch(ctx context.Context, reg *Registry, jobs []Job, parallel int) (*BatchResult, error) {
	if parallel < 1 {
		parallel = 1
	}
	if reg == nil {
		reg = NewRegistry()
	}
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	out := &BatchResult{RunID: runID, Results: make([]Result, len(jobs))}
	log := p.log.WithRunID(runID)
	recovery := logging.NewRecoveryHandler("ingest", log)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var sum *Summary
			err := recovery.WrapError(func() error {
				var err error
				sum, err = p.runJob(logging.WithJob(gctx, job.Name()), reg, job)
				return err
			})
			if err != nil {
				log.Warn("job_failed", map[string]any{"job": job.Name()}, err)
			}
			mu.Lock()
			out.Results[i] = Result{Job: job, Summary: sum, Err: err}
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	log.Info("batch_done", map[string]any{
		"jobs":     len(jobs),
		"failed":   out.Failed(),
		"parallel": parallel,
	})
	if err != nil {
		return out, err
	}
	return out, ctx.Err()
}

func (p *Pipeline) runJob(ctx context.Context, reg *Registry, job Job) (*Summary, error) {
	src, meta := job.Source, job.Meta
	if src == nil {
		if job.Path == "" {
			return nil, fmt.Errorf("job has neither path nor source")
		}
		var err error
		var loaded report.Meta
		src, loaded, err = reg.LoadFile(job.Path)
		if err != nil {
			return nil, err
		}
		meta = mergeMeta(loaded, job.Meta)
	}
	return p.Process(ctx, src, meta)
}
