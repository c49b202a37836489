package trace

import "context"

// frame is what a context carries for tracing.
type frame struct {
	tracer Tracer
	span   uint64 // enclosing span, 0 at the top
	module string
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	var f frame
	if ctx != nil {
		f, _ = ctx.Value(frameKey{}).(frame)
	}
	if f.tracer == nil {
		f.tracer = Nop
	}
	return f
}

func withFrame(ctx context.Context, f frame) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, frameKey{}, f)
}

// FromContext returns the tracer of ctx, Nop when none is attached.
func FromContext(ctx context.Context) Tracer {
	return frameOf(ctx).tracer
}

// WithTracer attaches t to ctx. A nil t turns tracing off.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	f := frameOf(ctx)
	f.tracer = t
	return withFrame(ctx, f)
}

// WithModule tags the events emitted under ctx with the module name.
func WithModule(ctx context.Context, name string) context.Context {
	f := frameOf(ctx)
	f.module = name
	return withFrame(ctx, f)
}

// ModuleOf returns the name set by WithModule.
func ModuleOf(ctx context.Context) string {
	return frameOf(ctx).module
}
