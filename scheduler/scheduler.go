package scheduler

import (
	"sync"

	"go-segue/debug"
	"go-segue/song"
)

// Scheduler keeps the locally-held playback position (segment, repetition,
// beat) in sync with the external engine and dispatches parameter changes
// so they land exactly on loop boundaries.
//
// All entry points serialize on one mutex: the engine event goroutine, the
// control surface and the UI funnel through here, and no two handlers ever
// interleave. HandlePreRoll and HandleBeat both touch the prepared-
// transition state, so partial interleavings would corrupt it.
type Scheduler struct {
	mu    sync.Mutex
	sink  ParameterSink
	song  *song.Song
	state PlaybackState

	// boundaryBeat is the beat value the engine reports at loop start.
	// Kept configurable because a 1-based engine would silently break the
	// boundary predicate.
	boundaryBeat int

	updates chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithBoundaryBeat overrides the beat value treated as a loop boundary
func WithBoundaryBeat(beat int) Option {
	return func(s *Scheduler) {
		s.boundaryBeat = beat
	}
}

// New creates a scheduler writing to sink. No song is loaded yet.
func New(sink ParameterSink, opts ...Option) *Scheduler {
	s := &Scheduler{
		sink:         sink,
		state:        newPlaybackState(),
		boundaryBeat: 0,
		updates:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Updates returns the status-change notification channel (cap 1, coalesced)
func (s *Scheduler) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns a copy of the current playback state
func (s *Scheduler) Snapshot() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentSong returns the loaded song (nil if none)
func (s *Scheduler) CurrentSong() *song.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// Status projects the current state for display
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.state, s.song)
}

// HandleTransportState applies the engine's play/stop echo. This is the
// only place the playing flag changes; transport commands are never applied
// optimistically. Either transition re-arms the first-cycle suppression so
// the next boundary is not counted as a completed loop.
func (s *Scheduler) HandleTransportState(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Duplicate echoes (UDP) report no transition; re-arming the first-cycle
	// suppression for one would wrongly swallow a repetition.
	if playing == s.state.Playing {
		debug.Log("sched", "transport echo playing=%v (no change)", playing)
		return
	}

	s.state.Playing = playing
	// A pending prime already suppresses the next boundary; don't demote it.
	if s.state.Phase != BoundaryPrimed {
		s.state.Phase = BoundaryFresh
	}
	debug.Log("sched", "transport echo playing=%v phase=%s", playing, s.state.Phase)
	s.notify()
}

// HandlePreRoll runs shortly before a loop boundary and decides what that
// boundary will mean: continue the segment, stop, or activate the next
// segment. Program selects for a prepared segment are sent now, because the
// engine's program-change point needs lead time; tempo and loop length wait
// for the boundary itself.
func (s *Scheduler) HandlePreRoll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.song == nil || s.song.Len() == 0 {
		debug.Log("sched", "anomaly at pre-roll: no playable song")
		s.state.NextIndex = NoPending
		s.notify()
		return
	}

	seg, err := s.song.Segment(s.state.SegmentIndex)
	if err != nil {
		s.heal("pre-roll", err)
		return
	}

	if s.state.Repetition < seg.Repetitions {
		// Not the segment's last loop; the boundary just continues it
		s.state.NextIndex = NoPending
		return
	}

	if seg.AutoStop {
		debug.Log("sched", "auto-stop after segment %d", s.state.SegmentIndex)
		s.sink.TransportStop()
		s.state.NextIndex = NoPending
		return
	}

	next := (s.state.SegmentIndex + 1) % s.song.Len()
	nextSeg, err := s.song.Segment(next)
	if err != nil {
		s.heal("pre-roll next", err)
		return
	}

	s.sink.SetProgram1(nextSeg.Program1)
	s.sink.SetProgram2(nextSeg.Program2)
	s.state.NextIndex = next
	debug.Log("sched", "prepared segment %d (programs %d/%d announced)", next, nextSeg.Program1, nextSeg.Program2)
}

// HandleBeat records the engine's beat tick. Only the boundary beat is
// decision-relevant: it either activates a prepared segment or settles the
// repetition count for the loop that just closed.
func (s *Scheduler) HandleBeat(beat int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Beat = beat
	debug.LogEvery(16, "sched", "beat %d", beat)

	if beat != s.boundaryBeat {
		s.notify()
		return
	}

	if s.state.TransitionPrepared() {
		s.activate(s.state.NextIndex)
		s.notify()
		return
	}

	switch s.state.Phase {
	case BoundaryPrimed, BoundaryFresh:
		// This boundary opens the cycle that was already counted when the
		// segment or transport became active; it closes nothing.
		s.state.Phase = BoundarySteady
	case BoundarySteady:
		if s.state.Playing {
			s.state.Repetition++
			debug.Log("sched", "segment %d repetition %d", s.state.SegmentIndex, s.state.Repetition)
		} else {
			// Stopped on a boundary: don't leave a stale high count for a
			// future restart
			s.state.Repetition = 1
		}
	}
	s.notify()
}

// activate switches to the prepared segment and sends the parameters that
// must change exactly on the boundary. Caller holds the mutex.
func (s *Scheduler) activate(next int) {
	s.state.NextIndex = NoPending

	if s.song == nil {
		s.heal("activate", song.ErrNoSegment)
		return
	}
	// Re-validate against the live song: it may have been edited since the
	// pre-roll that prepared this transition.
	seg, err := s.song.Segment(next)
	if err != nil {
		s.heal("activate", err)
		return
	}

	s.state.SegmentIndex = next
	s.state.Repetition = 1
	s.state.Phase = BoundaryFresh
	s.sink.SetTempo(seg.Tempo)
	s.sink.SetLoopLength(seg.LoopLength)
	debug.Log("sched", "activated segment %d (tempo %.1f, loop %d)", next, seg.Tempo, seg.LoopLength)
}

// heal recovers from an invalid position (song mutated under us). Never
// fatal: reset to the top of the song and keep going.
func (s *Scheduler) heal(where string, err error) {
	debug.Log("sched", "anomaly at %s: %v - resetting position", where, err)
	s.state.SegmentIndex = 0
	s.state.Repetition = 1
	s.state.NextIndex = NoPending
	s.notify()
}

// HandleTempoEcho records the engine's authoritative tempo for display
func (s *Scheduler) HandleTempoEcho(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EngineTempo = bpm
	s.notify()
}

// Prime re-arms the engine from a stopped state without abandoning the
// song position: segment and repetition stay put, the beat counter resets,
// and the next boundary is not counted.
func (s *Scheduler) Prime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sink.TransportPrime()
	s.state.Beat = s.boundaryBeat
	s.state.Phase = BoundaryPrimed
	debug.Log("sched", "primed at segment %d rep %d", s.state.SegmentIndex, s.state.Repetition)
	s.notify()
}

// Continue forwards a transport-continue command. The playing flag changes
// only when the engine echoes the new state back.
func (s *Scheduler) Continue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.TransportContinue()
}

// Stop forwards a transport-stop command (state change on echo only)
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.TransportStop()
}

// LoadSong replaces the active song, resets the playback position and
// announces segment 0's full parameter set so the engine is set up before
// playback starts. The playing flag persists until the next engine echo.
func (s *Scheduler) LoadSong(sng *song.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playing := s.state.Playing
	s.song = sng
	s.state = newPlaybackState()
	s.state.Playing = playing

	if sng != nil && sng.Len() > 0 {
		seg, err := sng.Segment(0)
		if err == nil {
			s.sink.SetTempo(seg.Tempo)
			s.sink.SetProgram1(seg.Program1)
			s.sink.SetProgram2(seg.Program2)
		}
	}

	name := "(none)"
	if sng != nil {
		name = sng.Name()
	}
	debug.Log("sched", "loaded song %s", name)
	s.notify()
}

// ClearSong unloads the song and resets the playback position
func (s *Scheduler) ClearSong() {
	s.LoadSong(nil)
}

// notify signals a status change to the UI (coalesced). Caller holds the
// mutex; the send never blocks.
func (s *Scheduler) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
