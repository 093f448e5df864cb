package gitops

import "context"

type noopSpan struct{}

func (noopSpan) SetTag(string, any) {}

// noopTracer is a Tracer that performs no tracing. It is the default
// Tracer wired in when no tracing backend is configured.
type noopTracer struct{}

// NewNoopTracer constructs a Tracer that discards every span.
func NewNoopTracer() Tracer { return noopTracer{} }

func (noopTracer) StartSpan(ctx context.Context, operation string, tags map[string]any) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopTracer) FinishSpan(span TraceSpan, code int, message string) {}
