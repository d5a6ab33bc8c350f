package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/xbrlgraph/internal/ingest"
	"github.com/joss/xbrlgraph/internal/render"
	"github.com/joss/xbrlgraph/internal/store"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// classifyElements counts taxonomy elements per category.
func classifyElements(elements []taxonomy.Element) map[taxonomy.Category]int {
	counts := make(map[taxonomy.Category]int)
	for i := range elements {
		counts[taxonomy.Classify(&elements[i])]++
	}
	return counts
}

func sortedLabels(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Count a filing's taxonomy elements by category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := ingest.NewRegistry().LoadFile(args[0])
			if err != nil {
				return err
			}
			counts := classifyElements(src.Elements())
			byName := make(map[string]int, len(counts))
			for c, n := range counts {
				byName[string(c)] = n
			}
			return output(cmd.OutOrStdout(), byName, render.New(pretty).Categories(counts))
		},
	}
}

func historyCmd() *cobra.Command {
	var (
		cik    string
		status string
		since  time.Duration
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List processed reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := openHistory()
			if err != nil {
				return err
			}
			if hist == nil {
				return fmt.Errorf("history is disabled")
			}
			defer hist.Close()

			f := store.DefaultFilter().WithLimit(limit).WithOrder("started_at", true)
			if cik != "" {
				f = f.WithWhere("cik", cik)
			}
			if status != "" {
				f = f.WithWhere("status", status)
			}
			if since > 0 {
				f = f.WithSince(time.Now().Add(-since))
			}
			runs, err := hist.ListRuns(cmd.Context(), f)
			if err != nil {
				return err
			}
			if jsonOut {
				return render.NewWriter(cmd.OutOrStdout()).JSON(runs)
			}
			render.NewHistory(render.NewWriter(cmd.OutOrStdout())).Runs(runs)
			return nil
		},
	}
	cmd.Flags().StringVar(&cik, "cik", "", "Only runs of this filer")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (ok, error)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only runs started within this long (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with its networks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := openHistory()
			if err != nil {
				return err
			}
			if hist == nil {
				return fmt.Errorf("history is disabled")
			}
			defer hist.Close()

			run, err := hist.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return render.NewWriter(cmd.OutOrStdout()).JSON(run)
			}
			render.NewHistory(render.NewWriter(cmd.OutOrStdout())).Run(run)
			return nil
		},
	})
	return cmd
}
