package module

import "time"

// Stage describes a phase of one module run.
type Stage string

const (
	// StageDiscover is reported for every module once discovery grouped its inputs.
	StageDiscover Stage = "discover"
	// StageManifest covers manifest loading and file resolution.
	StageManifest Stage = "manifest"
	// StageCheck covers the file-type checkers.
	StageCheck Stage = "check"
	// StageDone is the final event of a module.
	StageDone Stage = "done"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the module is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the module is being checked.
	StatusWorking Status = "working"
	// StatusDone indicates the module is done.
	StatusDone Status = "done"
	// StatusError indicates the module could not be checked or a check panicked.
	StatusError Status = "error"
)

// Event reports progress for one module, keyed by its short manifest path.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Workers call it concurrently.
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

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
