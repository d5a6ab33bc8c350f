package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joss/xbrlgraph/internal/graph"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/metrics"
	"github.com/joss/xbrlgraph/internal/render"
	"github.com/joss/xbrlgraph/internal/store"
)

// expandInputs resolves glob patterns (doublestar syntax, e.g.
// filings/**/*.yaml) into a sorted, deduplicated file list. A pattern
// without glob characters is kept as-is so missing files surface as load
// errors.
func expandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 && !hasMeta(p) {
			matches = []string{p}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// connectGraph opens the configured graph database.
func connectGraph(ctx context.Context) (*graph.Memgraph, error) {
	return graph.ConnectWithRetry(ctx, graph.ConfigFrom(cfg.Neo4j), 3, logging.New("graph"))
}

// openHistory opens the run-history store, or returns nil when disabled.
func openHistory() (*store.History, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	return store.OpenHistory(cfg.History.Path)
}

// startMetrics serves /metrics when an address is configured. The returned
// stop function is always safe to call.
func startMetrics(m *metrics.Metrics) (func(), error) {
	if cfg.Metrics.Addr == "" {
		return func() {}, nil
	}
	srv := metrics.NewServer(cfg.Metrics.Addr, m)
	if err := srv.Start(); err != nil {
		return func() {}, err
	}
	logging.New("metrics").Info("metrics_listening", map[string]any{"addr": srv.Addr()})
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}, nil
}

// output writes v as JSON with --json, or text otherwise.
func output(w io.Writer, v any, text string) error {
	if jsonOut {
		return render.NewWriter(w).JSON(v)
	}
	_, err := io.WriteString(w, text)
	return err
}
