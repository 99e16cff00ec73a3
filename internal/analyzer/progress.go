package analyzer

import "time"

// Stage describes where a file is in the run.
type Stage string

const (
	StageLoad    Stage = "load"
	StageAnalyze Stage = "analyze"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	Findings int
	Cached   bool
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; directory runs report from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
