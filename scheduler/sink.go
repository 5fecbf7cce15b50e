package scheduler

// ParameterSink accepts fire-and-forget parameter writes to the audio
// engine. Writes are not acknowledged and are never retried: every value is
// re-announced on the next pre-roll/activation cycle, so a lost write
// self-corrects. Implementations must not block.
type ParameterSink interface {
	// SetTempo writes a new tempo in BPM. Sent exactly at a loop boundary
	// when a segment activates, and once at song load.
	SetTempo(bpm float64)

	// SetProgram1 / SetProgram2 pre-announce the program selects for the
	// upcoming segment. These need lead time: they are sent at pre-roll,
	// before the engine's own program-change point.
	SetProgram1(value int)
	SetProgram2(value int)

	// SetLoopLength writes the loop length in beats for the newly active
	// segment. Sent at activation together with the tempo.
	SetLoopLength(beats int)

	// Transport commands. The engine echoes the resulting play/stop state
	// back through the event stream; the scheduler never assumes a command
	// took effect.
	TransportContinue()
	TransportStop()
	TransportPrime()
}
