package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/graph"
	"github.com/joss/xbrlgraph/internal/ingest"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/metrics"
	"github.com/joss/xbrlgraph/internal/render"
	"github.com/joss/xbrlgraph/internal/report"
)

func ingestCmd() *cobra.Command {
	var (
		dryRun    bool
		verify    bool
		parallel  int
		cik       string
		tolerance string
	)

	cmd := &cobra.Command{
		Use:   "ingest <glob>...",
		Short: "Validate filings and write them to the graph",
		Example: `  xbrlgraph ingest 'filings/**/*.yaml'
  xbrlgraph ingest --dry-run --parallel 4 filings/acme-2024.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			files, err := expandInputs(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no filings match %v", args)
			}
			if !cmd.Flags().Changed("parallel") {
				parallel = cfg.Ingest.Parallel
			}

			m := metrics.Global()
			stopMetrics, err := startMetrics(m)
			if err != nil {
				return err
			}
			defer stopMetrics()

			opts := []ingest.Option{ingest.WithMetrics(m)}
			if tolerance != "" {
				tol, err := decimal.NewFromString(tolerance)
				if err != nil {
					return fmt.Errorf("--tolerance: %w", err)
				}
				opts = append(opts, ingest.WithTolerance(tol, cfg.Validation.ZeroTolerance))
			}

			var writer *graph.BatchWriter
			if dryRun {
				opts = append(opts, ingest.WithSink(graph.NewMemorySink()))
			} else {
				db, err := connectGraph(ctx)
				if err != nil {
					return err
				}
				defer db.Close()
				writer = graph.NewBatchWriter(db,
					graph.WithBatchSize(cfg.Ingest.BatchSize),
					graph.WithMetrics(m),
					graph.WithLogger(logging.New("graph")),
					graph.WithReadCache(graph.NewQueryCache(100, time.Minute)),
				)
				opts = append(opts, ingest.WithSink(writer))
			}

			hist, err := openHistory()
			if err != nil {
				return err
			}
			if hist != nil {
				defer hist.Close()
				opts = append(opts, ingest.WithHistory(hist))
			}

			jobs := make([]ingest.Job, 0, len(files))
			for _, f := range files {
				jobs = append(jobs, ingest.Job{Path: f, Meta: report.Meta{CIK: cik}})
			}

			p := ingest.NewPipeline(cfg, opts...)
			res, err := p.RunBatch(ctx, nil, jobs, parallel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := output(out, res, render.New(pretty).Batch(res)); err != nil {
				return err
			}
			if verify && writer != nil {
				if err := verifyWrites(ctx, writer, res, out); err != nil {
					return err
				}
			}
			return res.Err()
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and plan without writing to the graph")
	cmd.Flags().BoolVar(&verify, "verify", false, "Read written reports back and print node counts")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Reports processed concurrently")
	cmd.Flags().StringVar(&cik, "cik", "", "Override the filer CIK of every input")
	cmd.Flags().StringVar(&tolerance, "tolerance", "", "Relative calculation tolerance (e.g. 0.01)")
	return cmd
}

// verifyWrites reads each written report back from the graph.
func verifyWrites(ctx context.Context, w *graph.BatchWriter, res *ingest.BatchResult, out io.Writer) error {
	for _, r := range res.Results {
		if r.Err != nil || r.Summary == nil || !r.Summary.Written {
			continue
		}
		nodes, err := w.ReadNodes(ctx, domain.NodeReport, map[string]any{"id": r.Summary.ReportID}, 1)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("report %s not found after write", r.Summary.ReportID)
		}
		counts, err := w.CountReport(ctx, r.Summary.ReportID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s:", render.StatusIcon("ok"), r.Summary.ReportID)
		for _, label := range sortedLabels(counts) {
			fmt.Fprintf(out, " %s=%d", label, counts[label])
		}
		fmt.Fprintln(out)
	}
	return nil
}

func validateCmd() *cobra.Command {
	var cik string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Dry-run one filing and print its per-network validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, meta, err := ingest.NewRegistry().LoadFile(args[0])
			if err != nil {
				return err
			}
			if cik != "" {
				meta.CIK = cik
			}

			p := ingest.NewPipeline(cfg, ingest.WithSink(graph.NewMemorySink()))
			sum, err := p.Process(cmd.Context(), src, meta)
			if err != nil {
				return err
			}

			r := render.New(pretty)
			text := r.Summary(sum) + "\nrejections:\n" + r.Reasons(sum.Reasons())
			return output(cmd.OutOrStdout(), sum, text)
		},
	}
	cmd.Flags().StringVar(&cik, "cik", "", "Override the filer CIK")
	return cmd
}
