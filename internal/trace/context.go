package trace

import (
	"context"
	"time"
)

type (
	tracerKey struct{}
	spanKey   struct{}
)

// WithTracer attaches t to ctx. A nil tracer is stored as Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

func spanFrom(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// Start begins a span nested under the one carried by ctx. The returned
// context carries the new span when it is recorded.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	return start(ctx, scope, name, "")
}

// StartFile begins the file span for path.
func StartFile(ctx context.Context, path string) (context.Context, *Span) {
	return start(ctx, ScopeFile, "file:"+path, path)
}

func start(ctx context.Context, scope Scope, name, file string) (context.Context, *Span) {
	s := begin(FromContext(ctx), spanFrom(ctx), scope, name, file)
	if s.recording() {
		ctx = context.WithValue(ctx, spanKey{}, s)
	}
	return ctx, s
}

// Point emits an instant event under the current span. Points pass every
// level except off, so failures show up even at LevelError.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() {
		return
	}
	ev := &Event{Time: time.Now(), Kind: KindPoint, Scope: scope, Name: name, Detail: detail}
	if parent := spanFrom(ctx); parent.recording() {
		ev.ParentID = parent.id
		ev.Depth = parent.depth + 1
		ev.File = parent.file
	}
	t.Emit(ev)
}
