package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/materialize"
	"github.com/joss/xbrlgraph/internal/metrics"
)

// Sink accepts node and edge upsert batches.
type Sink interface {
	WriteNodes(ctx context.Context, b materialize.NodeBatch) error
	WriteEdges(ctx context.Context, b materialize.EdgeBatch) error
}

// WriteStats counts what one plan wrote.
type WriteStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// WritePlan writes every node batch, then every edge batch. It stops at the
// first failed batch.
func WritePlan(ctx context.Context, s Sink, p *materialize.Plan) (WriteStats, error) {
	var st WriteStats
	for _, b := range p.Nodes {
		if err := s.WriteNodes(ctx, b); err != nil {
			return st, err
		}
		st.Nodes += len(b.Nodes)
	}
	for _, b := range p.Edges {
		if err := s.WriteEdges(ctx, b); err != nil {
			return st, err
		}
		st.Edges += len(b.Edges)
	}
	return st, nil
}

const DefaultBatchSize = 500

// BatchWriter writes batches through a Driver as chunked UNWIND/MERGE
// statements.
type BatchWriter struct {
	driver    Driver
	reader    GraphReader
	batchSize int
	metrics   *metrics.Metrics
	log       *logging.Logger
}

// WriterOption configures a BatchWriter.
type WriterOption func(*BatchWriter)

// WithBatchSize sets the rows per statement.
func WithBatchSize(n int) WriterOption {
	return func(w *BatchWriter) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithMetrics records statement counts and durations.
func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *BatchWriter) { w.metrics = m }
}

// WithLogger sets the writer logger.
func WithLogger(l *logging.Logger) WriterOption {
	return func(w *BatchWriter) { w.log = l }
}

// WithReadCache serves read-back queries through a query cache.
func WithReadCache(c *QueryCache) WriterOption {
	return func(w *BatchWriter) { w.reader = NewCachedDriver(w.driver, c) }
}

// NewBatchWriter creates a writer over d.
func NewBatchWriter(d Driver, opts ...WriterOption) *BatchWriter {
	w := &BatchWriter{driver: d, reader: d, batchSize: DefaultBatchSize, log: logging.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NodeQuery returns the upsert statement for nodes of typ.
func NodeQuery(typ domain.NodeType) string {
	return fmt.Sprintf("UNWIND $rows AS row\nMERGE (n:%s {id: row.id})\nSET n += row.props", typ.GraphLabel())
}

// EdgeQuery returns the upsert statement for b. The batch keys become the
// relationship's MERGE pattern.
func EdgeQuery(b materialize.EdgeBatch) string {
	var pattern string
	if len(b.Keys) > 0 {
		parts := make([]string, 0, len(b.Keys))
		for _, k := range b.Keys {
			parts = append(parts, fmt.Sprintf("%s: row.props.%s", k, k))
		}
		pattern = " {" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf(
		"UNWIND $rows AS row\nMATCH (a:%s {id: row.from})\nMATCH (b:%s {id: row.to})\nMERGE (a)-[r:%s%s]->(b)\nSET r += row.props",
		b.FromType.GraphLabel(), b.ToType.GraphLabel(), b.Type, pattern,
	)
}

// WriteNodes implements Sink.
func (w *BatchWriter) WriteNodes(ctx context.Context, b materialize.NodeBatch) error {
	query := NodeQuery(b.Type)
	rows := make([]any, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		rows = append(rows, map[string]any{"id": n.ID, "props": map[string]any(n.Props)})
	}
	return w.chunked(ctx, "node", string(b.Type), query, rows)
}

// WriteEdges implements Sink. The batch is re-checked so that a plan built
// outside materialize cannot bypass the uniqueness keys.
func (w *BatchWriter) WriteEdges(ctx context.Context, b materialize.EdgeBatch) error {
	if err := b.Check(); err != nil {
		return err
	}
	query := EdgeQuery(b)
	rows := make([]any, 0, len(b.Edges))
	for _, e := range b.Edges {
		props := map[string]any(e.Props)
		if props == nil {
			props = map[string]any{}
		}
		rows = append(rows, map[string]any{"from": e.From, "to": e.To, "props": props})
	}
	return w.chunked(ctx, "edge", string(b.Type), query, rows)
}

func (w *BatchWriter) chunked(ctx context.Context, kind, name, query string, rows []any) error {
	for start := 0; start < len(rows); start += w.batchSize {
		end := start + w.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		began := time.Now()
		err := w.driver.ExecuteWrite(ctx, query, map[string]any{"rows": rows[start:end]})
		w.metrics.RecordGraphWrite(kind, end-start, time.Since(began), err)
		if err != nil {
			w.log.Error("graph_write_failed", map[string]any{"kind": kind, "type": name, "rows": end - start}, err)
			if IsConnectionError(err) {
				return fmt.Errorf("write %s %s [%d:%d]: %w: %w", kind, name, start, end, ErrUnavailable, err)
			}
			return fmt.Errorf("write %s %s [%d:%d]: %w", kind, name, start, end, err)
		}
	}
	w.log.Debug("graph_write", map[string]any{"kind": kind, "type": name, "rows": len(rows)})
	return nil
}

// ReadNodes reads nodes of typ back, filtered by exact property matches and
// ordered by id. limit <= 0 means no limit.
func (w *BatchWriter) ReadNodes(ctx context.Context, typ domain.NodeType, filter map[string]any, limit int) ([]materialize.Node, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "MATCH (n:%s)", typ.GraphLabel())
	params := make(map[string]any, len(filter)+1)
	for i, k := range keys {
		if i == 0 {
			sb.WriteString("\nWHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		param := fmt.Sprintf("p%d", i)
		fmt.Fprintf(&sb, "n.%s = $%s", k, param)
		params[param] = filter[k]
	}
	sb.WriteString("\nRETURN n.id AS id, properties(n) AS props\nORDER BY id")
	if limit > 0 {
		sb.WriteString("\nLIMIT $limit")
		params["limit"] = limit
	}

	records, err := w.reader.Execute(ctx, sb.String(), params)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", typ, err)
	}
	out := make([]materialize.Node, 0, len(records))
	for _, r := range records {
		out = append(out, materialize.Node{ID: GetString(r, "id"), Props: GetMap(r, "props")})
	}
	return out, nil
}

const countQuery = "MATCH (n) WHERE n.report_id = $report RETURN labels(n)[0] AS label, count(n) AS n"

// CountReport counts the nodes of one report by label.
func (w *BatchWriter) CountReport(ctx context.Context, reportID string) (map[string]int, error) {
	records, err := w.reader.Execute(ctx, countQuery, map[string]any{"report": reportID})
	if err != nil {
		return nil, fmt.Errorf("count report %s: %w", reportID, err)
	}
	out := make(map[string]int, len(records))
	for _, r := range records {
		out[GetString(r, "label")] = GetInt(r, "n")
	}
	return out, nil
}

// MemorySink keeps upserts in memory with the same identity rules as the
// graph: nodes by (type, id), edges by (relation, from, to, keys).
type MemorySink struct {
	mu    sync.Mutex
	nodes map[domain.NodeType]map[string]materialize.Props
	edges map[domain.RelationType]map[string]materialize.Edge
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		nodes: make(map[domain.NodeType]map[string]materialize.Props),
		edges: make(map[domain.RelationType]map[string]materialize.Edge),
	}
}

// WriteNodes implements Sink.
func (s *MemorySink) WriteNodes(_ context.Context, b materialize.NodeBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.nodes[b.Type]
	if !ok {
		byID = make(map[string]materialize.Props)
		s.nodes[b.Type] = byID
	}
	for _, n := range b.Nodes {
		props, ok := byID[n.ID]
		if !ok {
			props = make(materialize.Props, len(n.Props))
			byID[n.ID] = props
		}
		for k, v := range n.Props {
			props[k] = v
		}
	}
	return nil
}

// WriteEdges implements Sink.
func (s *MemorySink) WriteEdges(_ context.Context, b materialize.EdgeBatch) error {
	if err := b.Check(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.edges[b.Type]
	if !ok {
		byKey = make(map[string]materialize.Edge)
		s.edges[b.Type] = byKey
	}
	for _, e := range b.Edges {
		parts := []string{e.From, e.To}
		for _, k := range b.Keys {
			parts = append(parts, fmt.Sprint(e.Props[k]))
		}
		key := strings.Join(parts, "\x1f")

		merged := byKey[key]
		merged.From, merged.To = e.From, e.To
		if merged.Props == nil {
			merged.Props = make(materialize.Props, len(e.Props))
		}
		for k, v := range e.Props {
			merged.Props[k] = v
		}
		byKey[key] = merged
	}
	return nil
}

// Node returns the stored properties of one node.
func (s *MemorySink) Node(typ domain.NodeType, id string) (materialize.Props, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.nodes[typ][id]
	return p, ok
}

// NodeCount counts stored nodes of typ.
func (s *MemorySink) NodeCount(typ domain.NodeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes[typ])
}

// EdgeCount counts stored edges of rel.
func (s *MemorySink) EdgeCount(rel domain.RelationType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges[rel])
}

// Edges returns stored edges of rel ordered by (from, to).
func (s *MemorySink) Edges(rel domain.RelationType) []materialize.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]materialize.Edge, 0, len(s.edges[rel]))
	for _, e := range s.edges[rel] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
