package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/joss/xbrlgraph/internal/logging"
)

// Memgraph is the Bolt Driver.
type Memgraph struct {
	db  neo4j.DriverWithContext
	cfg Config
}

// NewMemgraph builds the driver. The first connection is opened lazily.
func NewMemgraph(cfg Config) (*Memgraph, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}
	db, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		if cfg.ConnectTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("bolt driver for %s: %w", cfg.URI, err)
	}
	return &Memgraph{db: db, cfg: cfg}, nil
}

// Execute runs a read query with the eager result transformer and routes it
// to readers.
func (m *Memgraph) Execute(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	res, err := neo4j.ExecuteQuery(ctx, m.db, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(m.cfg.Database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	out := make([]Record, len(res.Records))
	for i, r := range res.Records {
		out[i] = r.AsMap()
	}
	return out, nil
}

// ExecuteWrite runs query in a managed write transaction. The driver
// retries transient failures; anything else rolls the whole batch back.
func (m *Memgraph) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	sess := m.db.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: m.cfg.Database})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (m *Memgraph) Ping(ctx context.Context) error {
	return m.db.VerifyConnectivity(ctx)
}

func (m *Memgraph) Close() error {
	return m.db.Close(context.Background())
}

// ConnectWithRetry opens the database and waits for it to answer, doubling
// the pause after each failed attempt from 250ms.
func ConnectWithRetry(ctx context.Context, cfg Config, attempts int, log *logging.Logger) (*Memgraph, error) {
	if log == nil {
		log = logging.Nop()
	}
	attempts = max(attempts, 1)
	wait := 250 * time.Millisecond

	var err error
	for attempt := 1; ; attempt++ {
		var mg *Memgraph
		if mg, err = NewMemgraph(cfg); err == nil {
			if err = pingWithin(ctx, mg, cfg.ConnectTimeout); err == nil {
				log.Info("graph_connected", map[string]any{"uri": cfg.URI, "attempt": attempt})
				return mg, nil
			}
			mg.Close()
		}
		if attempt == attempts {
			break
		}
		log.Warn("graph_connect_retry", map[string]any{"uri": cfg.URI, "attempt": attempt, "wait_ms": wait.Milliseconds()}, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("%w at %s after %d attempts: %w", ErrUnavailable, cfg.URI, attempts, err)
}

func pingWithin(ctx context.Context, mg *Memgraph, d time.Duration) error {
	if d <= 0 {
		d = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return mg.Ping(ctx)
}

// IsConnectionError reports whether err is a network failure rather than
// a database error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || neo4j.IsConnectivityError(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
