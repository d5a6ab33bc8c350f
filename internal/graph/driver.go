// Package graph adapts the property-graph database to the write plans
// produced by materialize. Consumers depend on the Driver and Sink
// interfaces; Memgraph is the concrete driver.
package graph

import (
	"context"
	"errors"
	"time"

	"github.com/joss/xbrlgraph/internal/config"
)

// ErrUnavailable marks write failures caused by a lost or refused
// connection, as opposed to a rejected statement.
var ErrUnavailable = errors.New("graph unavailable")

// Record is one result row keyed by RETURN alias.
type Record map[string]any

// GraphReader runs read queries. BatchWriter reads back through it so a
// cache can sit in front of the driver.
type GraphReader interface {
	Execute(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// GraphWriter runs one write statement in its own transaction.
type GraphWriter interface {
	ExecuteWrite(ctx context.Context, query string, params map[string]any) error
}

// Driver is a Bolt database (Memgraph or Neo4j) or a test double.
type Driver interface {
	GraphReader
	GraphWriter
	Ping(ctx context.Context) error
	Close() error
}

// Config addresses the database and sizes the Bolt connection pool.
type Config struct {
	URI            string
	Username       string
	Password       string
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// ConfigFrom maps the loaded application settings onto a driver Config.
// Empty user means no authentication.
func ConfigFrom(c config.Neo4jConfig) Config {
	return Config{
		URI:            c.URI,
		Username:       c.User,
		Password:       c.Password,
		Database:       c.Database,
		MaxPoolSize:    50,
		ConnectTimeout: 5 * time.Second,
	}
}
