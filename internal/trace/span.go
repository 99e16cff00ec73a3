package trace

import (
	"sync/atomic"
	"time"
)

var lastSpanID atomic.Uint64

// Span is one node of the driver → file → rule tree. A span that is not
// recorded (tracing off, or its scope filtered by the level) is still safe
// to use; all of its methods do nothing.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	depth   int
	scope   Scope
	name    string
	file    string
	started time.Time
	extra   map[string]string
}

func (s *Span) recording() bool {
	return s != nil && s.tracer != nil && s.tracer.Enabled()
}

// begin emits the begin event for a child of parent. The file is inherited
// from the parent unless file is set.
func begin(t Tracer, parent *Span, scope Scope, name, file string) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:  t,
		id:      lastSpanID.Add(1),
		scope:   scope,
		name:    name,
		file:    file,
		started: time.Now(),
	}
	if parent.recording() {
		s.parent = parent.id
		s.depth = parent.depth + 1
		if s.file == "" {
			s.file = parent.file
		}
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Depth:    s.depth,
		Name:     s.name,
		File:     s.file,
		Detail:   detail,
	}
}

// End emits the end event with detail and any extras, and returns the
// span's duration. Unrecorded spans report zero.
func (s *Span) End(detail string) time.Duration {
	if !s.recording() {
		return 0
	}
	now := time.Now()
	ev := s.event(KindSpanEnd, now, detail)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return now.Sub(s.started)
}

// WithExtra attaches a key/value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.recording() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
