package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Run is one processed report.
type Run struct {
	ID          string        `json:"id"`     // ulid, sortable by creation
	RunID       string        `json:"run_id"` // batch correlation id
	CIK         string        `json:"cik"`
	ReportID    string        `json:"report_id"`
	DocumentURI string        `json:"document_uri"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Facts       int           `json:"facts"`
	Primary     int           `json:"primary"`
	Duplicates  int           `json:"duplicates"`
	Nodes       int           `json:"nodes"`
	Edges       int           `json:"edges"`
	Matched     int           `json:"matched"`
	Mismatched  int           `json:"mismatched"`
	Networks    []NetworkRun  `json:"networks,omitempty"`
}

// NetworkRun is the per-network outcome of a run.
type NetworkRun struct {
	Name       string `json:"name"`
	Candidates int    `json:"candidates"`
	Valid      int    `json:"valid"`
	Rejected   int    `json:"rejected"`
	Matched    int    `json:"matched"`
	Mismatched int    `json:"mismatched"`
}

const (
	RunOK    = "ok"
	RunError = "error"
)

// History is the SQLite run-history store.
type History struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var (
	_ Store       = (*History)(nil)
	_ Reader[Run] = (*History)(nil)
)

// filterable maps Filter fields to columns.
var filterable = map[string]string{
	"cik":        "cik",
	"report_id":  "report_id",
	"run_id":     "run_id",
	"status":     "status",
	"started_at": "started_at",
	"duration":   "duration_ms",
}

// OpenHistory opens or creates the database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w: %v", path, ErrConnection, err)
	}

	h := &History{db: db, path: path}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return h, nil
}

func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		cik TEXT NOT NULL,
		report_id TEXT NOT NULL,
		document_uri TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		facts INTEGER NOT NULL DEFAULT 0,
		primary_facts INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		nodes INTEGER NOT NULL DEFAULT 0,
		edges INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		mismatched INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_cik ON runs(cik);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS run_networks (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		candidates INTEGER NOT NULL DEFAULT 0,
		valid INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		mismatched INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, name),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Ping implements Store.
func (h *History) Ping(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close implements Store.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.db.Close()
}

// SaveRun stores run and its network rows in one transaction. An empty ID
// is assigned a new ulid.
func (h *History) SaveRun(ctx context.Context, run *Run) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	if run.ID == "" {
		run.ID = ulid.Make().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, run_id, cik, report_id, document_uri, status, error, started_at,
			duration_ms, facts, primary_facts, duplicates, nodes, edges, matched, mismatched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.RunID, run.CIK, run.ReportID, run.DocumentURI, run.Status, nullString(run.Error),
		run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Facts, run.Primary, run.Duplicates,
		run.Nodes, run.Edges, run.Matched, run.Mismatched)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %s: %w", run.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert run: %w", err)
	}

	for _, n := range run.Networks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_networks (run_id, name, candidates, valid, rejected, matched, mismatched)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, n.Name, n.Candidates, n.Valid, n.Rejected, n.Matched, n.Mismatched)
		if err != nil {
			return fmt.Errorf("insert network %s: %w", n.Name, err)
		}
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const runColumns = `id, run_id, cik, report_id, document_uri, status, error, started_at,
	duration_ms, facts, primary_facts, duplicates, nodes, edges, matched, mismatched`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var errText sql.NullString
	var durMs int64
	err := s.Scan(&r.ID, &r.RunID, &r.CIK, &r.ReportID, &r.DocumentURI, &r.Status, &errText, &r.StartedAt,
		&durMs, &r.Facts, &r.Primary, &r.Duplicates, &r.Nodes, &r.Edges, &r.Matched, &r.Mismatched)
	if err != nil {
		return nil, err
	}
	r.Error = errText.String
	r.Duration = time.Duration(durMs) * time.Millisecond
	return &r, nil
}

// Get implements Reader. It loads the network rows too.
func (h *History) Get(ctx context.Context, id string) (*Run, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrClosed
	}

	row := h.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("Run", id)
	}
	if err != nil {
		return nil, err
	}
	if err := h.loadNetworks(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *History) loadNetworks(ctx context.Context, r *Run) error {
	rows, err := h.db.QueryContext(ctx, `
		SELECT name, candidates, valid, rejected, matched, mismatched
		FROM run_networks WHERE run_id = ? ORDER BY name
	`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var n NetworkRun
		if err := rows.Scan(&n.Name, &n.Candidates, &n.Valid, &n.Rejected, &n.Matched, &n.Mismatched); err != nil {
			return err
		}
		r.Networks = append(r.Networks, n)
	}
	return rows.Err()
}

// where renders the filter conditions. Unknown fields are an error rather
// than silently ignored.
func where(f Filter) (string, []any, error) {
	fields := make([]string, 0, len(f.Where))
	for k := range f.Where {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var conds []string
	var args []any
	for _, k := range fields {
		col, ok := filterable[k]
		if !ok {
			return "", nil, fmt.Errorf("%q: %w", k, ErrUnknownField)
		}
		conds = append(conds, col+" = ?")
		args = append(args, f.Where[k])
	}
	if !f.Since.IsZero() {
		conds = append(conds, "started_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// List implements Reader. Network rows are not loaded.
func (h *History) List(ctx context.Context, f Filter) ([]*Run, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrClosed
	}

	cond, args, err := where(f)
	if err != nil {
		return nil, err
	}
	order := "id"
	if f.OrderBy != "" {
		col, ok := filterable[f.OrderBy]
		if !ok {
			return nil, fmt.Errorf("unknown order field %q", f.OrderBy)
		}
		order = col + ", id"
	}
	dir := "ASC"
	if f.OrderDesc {
		dir = "DESC"
	}
	order = strings.ReplaceAll(order, ",", " "+dir+",") + " " + dir

	query := "SELECT " + runColumns + " FROM runs" + cond + " ORDER BY " + order
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRuns lists runs, newest first unless the filter orders otherwise.
func (h *History) ListRuns(ctx context.Context, f Filter) ([]*Run, error) {
	return h.List(ctx, f)
}

// Count implements Reader.
func (h *History) Count(ctx context.Context, f Filter) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, ErrClosed
	}
	cond, args, err := where(f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+cond, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Path returns the database file path.
func (h *History) Path() string {
	return h.path
}
