// Package store keeps the history of processed reports in SQLite so runs
// can be listed and inspected after the graph has been written.
package store

import (
	"context"
	"time"
)

// Store is the lifecycle shared by history backends.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
}

// Filter selects runs. The zero value matches everything in id order.
type Filter struct {
	Where     map[string]any // column equality, keys limited to filterable fields
	Since     time.Time      // runs started at or after, when non-zero
	OrderBy   string
	OrderDesc bool
	Limit     int // 0 means unbounded
	Offset    int
}

// DefaultFilter is the most recent hundred runs.
func DefaultFilter() Filter {
	return Filter{OrderDesc: true, Limit: 100}
}

func (f Filter) WithLimit(n int) Filter {
	f.Limit = n
	return f
}

func (f Filter) WithOffset(n int) Filter {
	f.Offset = n
	return f
}

// WithOrder sorts by field; ties break on id in the same direction.
func (f Filter) WithOrder(field string, desc bool) Filter {
	f.OrderBy, f.OrderDesc = field, desc
	return f
}

// WithSince keeps runs started at or after t.
func (f Filter) WithSince(t time.Time) Filter {
	f.Since = t
	return f
}

// WithWhere adds an equality condition on a copy of the condition map.
func (f Filter) WithWhere(field string, value any) Filter {
	where := make(map[string]any, len(f.Where)+1)
	for k, v := range f.Where {
		where[k] = v
	}
	where[field] = value
	f.Where = where
	return f
}

// Reader is the read side of a run store.
type Reader[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, f Filter) ([]*T, error)
	Count(ctx context.Context, f Filter) (int, error)
}
