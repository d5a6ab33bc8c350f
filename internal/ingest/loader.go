package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/snapshot"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Loader turns a filing file into a taxonomy source.
type Loader interface {
	// Extensions returns file extensions this loader handles.
	Extensions() []string

	// Load decodes one file.
	Load(path string, content []byte) (taxonomy.Source, report.Meta, error)
}

// SnapshotLoader reads YAML and JSON filing snapshots.
type SnapshotLoader struct{}

// Extensions returns snapshot file extensions.
func (SnapshotLoader) Extensions() []string {
	return []string{".yaml", ".yml", ".json"}
}

// Load decodes a snapshot document.
func (SnapshotLoader) Load(path string, content []byte) (taxonomy.Source, report.Meta, error) {
	s, err := snapshot.Decode(content)
	if err != nil {
		return nil, report.Meta{}, err
	}
	src, err := s.Source()
	if err != nil {
		return nil, report.Meta{}, err
	}
	return src, s.Meta(), nil
}

// ErrUnsupported is returned for files no loader handles.
var ErrUnsupported = errors.New("unsupported filing format")

// Registry picks a loader by file extension.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates a registry with the snapshot loader registered.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(SnapshotLoader{})
	return r
}

// Register adds a loader for each of its extensions.
func (r *Registry) Register(l Loader) {
	for _, ext := range l.Extensions() {
		r.loaders[strings.ToLower(ext)] = l
	}
}

// CanLoad reports whether some loader handles path.
func (r *Registry) CanLoad(path string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadFile reads path and decodes it with the matching loader.
func (r *Registry) LoadFile(path string) (taxonomy.Source, report.Meta, error) {
	l, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, report.Meta{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, report.Meta{}, err
	}
	src, meta, err := l.Load(path, content)
	if err != nil {
		return nil, report.Meta{}, fmt.Errorf("%s: %w", path, err)
	}
	return src, meta, nil
}
