package scheduler

// BoundaryPhase says what the next loop boundary (beat-0) means for the
// repetition counter. Exactly one phase is in effect at a time; the old
// flag pair (prime-armed / first-cycle-after-start) collapses into this so
// conflicting combinations cannot exist.
type BoundaryPhase int

const (
	// BoundarySteady: the next boundary closes a completed loop and
	// increments the repetition.
	BoundarySteady BoundaryPhase = iota

	// BoundaryFresh: the next boundary is the first after playback start
	// or a segment activation. It does not represent a completed loop, so
	// the repetition is not incremented.
	BoundaryFresh

	// BoundaryPrimed: the next boundary follows a prime command, which
	// re-arms the engine without counting a repetition.
	BoundaryPrimed
)

func (p BoundaryPhase) String() string {
	switch p {
	case BoundarySteady:
		return "steady"
	case BoundaryFresh:
		return "fresh"
	case BoundaryPrimed:
		return "primed"
	}
	return "unknown"
}

// NoPending marks that no segment transition is prepared
const NoPending = -1

// PlaybackState is the scheduler-owned playback position. Single writer:
// all mutation goes through the scheduler's serialized entry points.
// Snapshot() hands out copies.
type PlaybackState struct {
	Playing      bool
	SegmentIndex int     // index into the active song's segments
	Repetition   int     // 1-based loop count within the current segment
	Beat         int     // last beat value reported by the engine
	EngineTempo  float64 // engine's authoritative tempo echo, 0 until first echo

	Phase     BoundaryPhase
	NextIndex int // prepared next segment, NoPending when no transition is queued
}

// TransitionPrepared reports whether a pre-roll has queued the next segment
func (s PlaybackState) TransitionPrepared() bool {
	return s.NextIndex != NoPending
}

// newPlaybackState returns the defaults used at startup and on song load
func newPlaybackState() PlaybackState {
	return PlaybackState{
		SegmentIndex: 0,
		Repetition:   1,
		Beat:         0,
		Phase:        BoundarySteady,
		NextIndex:    NoPending,
	}
}
