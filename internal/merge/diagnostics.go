// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import "github.com/pdiddy/bibmerge/internal/match"

// Level is the severity of a diagnostic event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
)

// EventKind names what happened during the merge.
type EventKind string

const (
	// EventDuplicateKey: a key was seen again, as a primary or an alias.
	EventDuplicateKey EventKind = "duplicate-key"

	// EventMatch: a new key was folded into an existing record.
	EventMatch EventKind = "match"

	// EventDubiousMatch: identifiers agreed but titles did not; rejected.
	EventDubiousMatch EventKind = "dubious-match"

	// EventReplaced: a newer source replaced the stored version.
	EventReplaced EventKind = "replaced"

	// EventNewPrimary: a key became a new primary record.
	EventNewPrimary EventKind = "new-primary"
)

// Event is one observation emitted by the merge engine. Events do not
// affect control flow.
type Event struct {
	Level   Level
	Kind    EventKind
	Source  string
	Key     string
	Primary string
	Rule    match.Rule
	Field   string
	Message string
}

// Sink receives diagnostic events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops all events.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps every event in memory.
type Recorder struct {
	Events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Kind returns the recorded events of the given kind, in emission order.
func (r *Recorder) Kind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Tee forwards every event to each sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}
