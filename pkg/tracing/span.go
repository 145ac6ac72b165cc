// Package tracing records timed spans for a single request and logs the
// finished tree through slog. Spans travel in a context.Context.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed step of a request.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	attrs    []any
	children []*Span
}

// StartSpan starts a root span for traceID.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan starts a span under the one in ctx. Without a parent the
// span is detached and never logged.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, Start: time.Now()}
	if parent := SpanFromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// Trace runs fn inside a child span and records its error, if any.
func Trace(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := StartChildSpan(ctx, name)
	defer span.End()
	err := fn(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	return err
}

func (s *Span) End() {
	s.Duration = time.Since(s.Start)
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// Children returns a copy of the span's direct children.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Span, len(s.children))
	copy(out, s.children)
	return out
}

func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// Log writes the span and its descendants at debug level, depth first.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_us", s.Duration.Microseconds(),
		"depth", depth,
	}, s.attrs...)
	children := s.children
	s.mu.Unlock()

	logger.Debug("span", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
