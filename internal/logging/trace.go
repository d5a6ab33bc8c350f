package logging

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// trace identifies the batch run and the job within it that a context
// belongs to.
type trace struct {
	runID string
	job   string
}

func traceFrom(ctx context.Context) trace {
	t, _ := ctx.Value(traceKey{}).(trace)
	return t
}

// NewRunID returns a fresh id shared by every report of one batch.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID attaches a run id to ctx. An empty id generates one.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRunID()
	}
	t := traceFrom(ctx)
	t.runID = id
	return context.WithValue(ctx, traceKey{}, t)
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).runID
}

// WithJob names the input (usually a file path) being processed under ctx.
func WithJob(ctx context.Context, job string) context.Context {
	t := traceFrom(ctx)
	t.job = job
	return context.WithValue(ctx, traceKey{}, t)
}

// JobFromContext returns the job name, or "".
func JobFromContext(ctx context.Context) string {
	return traceFrom(ctx).job
}

// Ctx returns l scoped to the run and job carried by ctx.
func (l *Logger) Ctx(ctx context.Context) *Logger {
	t := traceFrom(ctx)
	out := l.WithRunID(t.runID)
	if t.job != "" {
		out = out.With("job", t.job)
	}
	return out
}
