package ingest

import (
	"sync"

	"github.com/joss/xbrlgraph/internal/dimension"
	"github.com/joss/xbrlgraph/internal/logging"
)

// DimensionCache holds one dimension graph per filer. Graphs are built once
// and shared read-only by every report of the same CIK.
type DimensionCache struct {
	mu     sync.Mutex
	graphs map[string]*dimension.Graph
	builds int
}

// NewDimensionCache creates an empty cache.
func NewDimensionCache() *DimensionCache {
	return &DimensionCache{graphs: make(map[string]*dimension.Graph)}
}

// Get returns the graph of cik, building it from src on first use.
func (c *DimensionCache) Get(cik string, src dimension.ArcSource, log *logging.Logger) *dimension.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.graphs[cik]; ok {
		return g
	}
	g := dimension.Build(src, cik, log)
	c.graphs[cik] = g
	c.builds++
	return g
}

// Len returns the number of cached filers.
func (c *DimensionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.graphs)
}

// Builds returns how many graphs were built.
func (c *DimensionCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
