package events

// Sink consumes events in emission order. Implementations must tolerate
// repeated calls and must not block for long: the orchestrator emits from its
// single outcome-handling path, so a stalled sink stalls the job.
type Sink interface {
	Emit(evt Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(evt Event)

// Emit calls f.
func (f SinkFunc) Emit(evt Event) { f(evt) }

// Fanout delivers each event to every sink in registration order. Nil sinks
// are skipped so callers can wire optional observers unconditionally.
type Fanout []Sink

// Emit implements Sink.
func (f Fanout) Emit(evt Event) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.Emit(evt)
	}
}
