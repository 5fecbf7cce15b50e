package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-segue/song"
)

// fakeSink records every parameter write and transport command in order
type fakeSink struct {
	calls []string
}

func (f *fakeSink) SetTempo(bpm float64)    { f.calls = append(f.calls, fmt.Sprintf("tempo:%.1f", bpm)) }
func (f *fakeSink) SetProgram1(v int)       { f.calls = append(f.calls, fmt.Sprintf("p1:%d", v)) }
func (f *fakeSink) SetProgram2(v int)       { f.calls = append(f.calls, fmt.Sprintf("p2:%d", v)) }
func (f *fakeSink) SetLoopLength(beats int) { f.calls = append(f.calls, fmt.Sprintf("loop:%d", beats)) }
func (f *fakeSink) TransportContinue()      { f.calls = append(f.calls, "continue") }
func (f *fakeSink) TransportStop()          { f.calls = append(f.calls, "stop") }
func (f *fakeSink) TransportPrime()         { f.calls = append(f.calls, "prime") }

func (f *fakeSink) reset() { f.calls = nil }

func testSong(t *testing.T, segs ...song.Segment) *song.Song {
	t.Helper()
	s, err := song.New("test")
	require.NoError(t, err)
	for _, seg := range segs {
		s.AddSegment(seg)
	}
	return s
}

func seg(tempo float64, loop, reps, p1, p2 int) song.Segment {
	return song.Segment{
		Program1:    p1,
		Program2:    p2,
		Tempo:       tempo,
		LoopLength:  loop,
		Repetitions: reps,
	}
}

// runLoop feeds one full loop of beats (loopLen ticks starting at the
// boundary) plus the pre-roll that precedes the next boundary.
func runLoop(s *Scheduler, loopLen int) {
	for beat := 0; beat < loopLen; beat++ {
		s.HandleBeat(beat)
	}
	s.HandlePreRoll()
}

func TestLoadSongAnnouncesFirstSegment(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)

	s.LoadSong(testSong(t, seg(95, 16, 2, 3, 7)))

	assert.Equal(t, []string{"tempo:95.0", "p1:3", "p2:7"}, sink.calls)

	state := s.Snapshot()
	assert.Equal(t, 0, state.SegmentIndex)
	assert.Equal(t, 1, state.Repetition)
	assert.Equal(t, NoPending, state.NextIndex)
	assert.False(t, state.TransitionPrepared())
}

func TestSingleSegmentWrapsToItself(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 2, 0, 0)))
	sink.reset()

	s.HandleTransportState(true)

	// First loop: repetition 1 of 2, pre-roll prepares nothing
	runLoop(s, 8)
	assert.Equal(t, NoPending, s.Snapshot().NextIndex)

	// Boundary closes loop 1, counts into repetition 2
	s.HandleBeat(0)
	assert.Equal(t, 2, s.Snapshot().Repetition)

	// Last loop: pre-roll wraps to the only segment
	for beat := 1; beat < 8; beat++ {
		s.HandleBeat(beat)
	}
	s.HandlePreRoll()
	require.Equal(t, 0, s.Snapshot().NextIndex)

	sink.reset()
	s.HandleBeat(0)

	state := s.Snapshot()
	assert.Equal(t, 0, state.SegmentIndex)
	assert.Equal(t, 1, state.Repetition)
	assert.Equal(t, NoPending, state.NextIndex)
	assert.Equal(t, []string{"tempo:120.0", "loop:8"}, sink.calls)
}

func TestTwoSegmentAdvance(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t,
		seg(100, 8, 1, 1, 2),
		seg(140, 16, 1, 3, 4),
	))
	sink.reset()
	s.HandleTransportState(true)

	// Pre-roll on the only repetition announces segment 1's programs
	runLoop(s, 8)
	assert.Equal(t, []string{"p1:3", "p2:4"}, sink.calls)
	assert.Equal(t, 1, s.Snapshot().NextIndex)

	// Tempo and loop length land exactly on the boundary
	sink.reset()
	s.HandleBeat(0)
	assert.Equal(t, []string{"tempo:140.0", "loop:16"}, sink.calls)

	state := s.Snapshot()
	assert.Equal(t, 1, state.SegmentIndex)
	assert.Equal(t, 1, state.Repetition)
}

func TestNonBoundaryBeatsChangeNothingButBeat(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 16, 4, 0, 0)))
	sink.reset()
	s.HandleTransportState(true)
	s.HandleBeat(0) // Fresh -> Steady

	for beat := 1; beat < 16; beat++ {
		s.HandleBeat(beat)
		state := s.Snapshot()
		assert.Equal(t, beat, state.Beat)
		assert.Equal(t, 1, state.Repetition)
		assert.Equal(t, 0, state.SegmentIndex)
	}
	assert.Empty(t, sink.calls)
}

func TestFirstBoundaryAfterTransportStartNotCounted(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 4, 0, 0)))

	s.HandleTransportState(true)
	require.Equal(t, BoundaryFresh, s.Snapshot().Phase)

	// The boundary that opens the first cycle closes nothing
	s.HandleBeat(0)
	state := s.Snapshot()
	assert.Equal(t, 1, state.Repetition)
	assert.Equal(t, BoundarySteady, state.Phase)

	// The next boundary is a real loop completion
	s.HandleBeat(0)
	assert.Equal(t, 2, s.Snapshot().Repetition)
}

func TestAutoStopSendsStopInsteadOfPreparing(t *testing.T) {
	stopSeg := seg(120, 8, 1, 0, 0)
	stopSeg.AutoStop = true

	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, stopSeg, seg(140, 8, 1, 5, 6)))
	sink.reset()
	s.HandleTransportState(true)

	runLoop(s, 8)

	assert.Equal(t, []string{"stop"}, sink.calls)
	assert.Equal(t, NoPending, s.Snapshot().NextIndex)
	// Position survives the stop: the engine echo flips the flag later
	assert.Equal(t, 0, s.Snapshot().SegmentIndex)
}

func TestPrimeKeepsPositionAndSuppressesBoundary(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 4, 0, 0)))
	s.HandleTransportState(true)
	s.HandleBeat(0)
	s.HandleBeat(0)
	s.HandleBeat(0) // repetition 3
	require.Equal(t, 3, s.Snapshot().Repetition)

	s.HandleTransportState(false)
	sink.reset()

	s.Prime()
	state := s.Snapshot()
	assert.Equal(t, []string{"prime"}, sink.calls)
	assert.Equal(t, 3, state.Repetition)
	assert.Equal(t, 0, state.Beat)
	assert.Equal(t, BoundaryPrimed, state.Phase)

	// Transport echo must not demote the pending prime
	s.HandleTransportState(true)
	assert.Equal(t, BoundaryPrimed, s.Snapshot().Phase)

	// One suppressed boundary, then counting resumes
	s.HandleBeat(0)
	assert.Equal(t, 3, s.Snapshot().Repetition)
	s.HandleBeat(0)
	assert.Equal(t, 4, s.Snapshot().Repetition)
}

func TestStoppedBoundaryResetsRepetition(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 4, 0, 0)))
	s.HandleTransportState(true)
	s.HandleBeat(0)
	s.HandleBeat(0)
	require.Equal(t, 2, s.Snapshot().Repetition)

	s.HandleTransportState(false)
	s.HandleBeat(0) // echo re-armed Fresh; suppressed
	s.HandleBeat(0) // steady but stopped: reset, don't count
	assert.Equal(t, 1, s.Snapshot().Repetition)
}

func TestTransportCommandsDoNotChangeStateOptimistically(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 1, 0, 0)))
	sink.reset()

	s.Continue()
	assert.False(t, s.Snapshot().Playing)
	s.Stop()
	assert.False(t, s.Snapshot().Playing)
	assert.Equal(t, []string{"continue", "stop"}, sink.calls)

	s.HandleTransportState(true)
	assert.True(t, s.Snapshot().Playing)
}

func TestActivateRevalidatesAgainstEditedSong(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	sng := testSong(t,
		seg(100, 8, 1, 0, 0),
		seg(140, 8, 1, 1, 1),
	)
	s.LoadSong(sng)
	s.HandleTransportState(true)

	runLoop(s, 8)
	require.Equal(t, 1, s.Snapshot().NextIndex)

	// Prepared transition now points past the end
	_, err := sng.RemoveSegment(1)
	require.NoError(t, err)
	sink.reset()

	s.HandleBeat(0)
	state := s.Snapshot()
	assert.Equal(t, 0, state.SegmentIndex)
	assert.Equal(t, 1, state.Repetition)
	assert.Equal(t, NoPending, state.NextIndex)
	assert.Empty(t, sink.calls)
}

func TestPreRollWithNoSongIsSafe(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)

	s.HandlePreRoll()

	// The defensive branch still tells the UI something happened
	select {
	case <-s.Updates():
	default:
		t.Fatal("expected an update notification from an empty pre-roll")
	}

	s.HandleBeat(0)
	s.HandleBeat(5)

	assert.Empty(t, sink.calls)
	assert.Equal(t, NoPending, s.Snapshot().NextIndex)
}

func TestDuplicateTransportEchoDoesNotRearmSuppression(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 8, 0, 0)))
	s.HandleTransportState(true)
	s.HandleBeat(0) // Fresh -> Steady
	s.HandleBeat(0)
	require.Equal(t, 2, s.Snapshot().Repetition)

	// A re-delivered echo reports no transition and must not re-arm the
	// first-cycle suppression
	s.HandleTransportState(true)
	assert.Equal(t, BoundarySteady, s.Snapshot().Phase)

	s.HandleBeat(0)
	assert.Equal(t, 3, s.Snapshot().Repetition)
}

func TestConcurrentEditsDuringPlayback(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	sng := testSong(t,
		seg(100, 8, 1, 0, 0),
		seg(140, 8, 1, 1, 1),
	)
	s.LoadSong(sng)
	s.HandleTransportState(true)

	// Edits arrive from the UI while engine events drive the scheduler; the
	// song serializes both sides
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			cur, err := sng.Segment(i % 2)
			if err != nil {
				continue
			}
			cur.Tempo = 90 + float64(i%100)
			sng.SetSegment(i%2, cur)
			if i%100 == 0 {
				sng.AddSegment(song.DefaultSegment())
				sng.RemoveSegment(sng.Len() - 1)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		s.HandleBeat(i % 8)
		if i%8 == 7 {
			s.HandlePreRoll()
		}
	}
	<-done

	state := s.Snapshot()
	assert.GreaterOrEqual(t, state.SegmentIndex, 0)
	assert.Less(t, state.SegmentIndex, sng.Len())
	assert.GreaterOrEqual(t, state.Repetition, 1)
}

func TestClearSongResetsPosition(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 4, 0, 0)))
	s.HandleTransportState(true)
	s.HandleBeat(0)
	s.HandleBeat(0)

	s.ClearSong()

	state := s.Snapshot()
	assert.Nil(t, s.CurrentSong())
	assert.Equal(t, 0, state.SegmentIndex)
	assert.Equal(t, 1, state.Repetition)
	assert.True(t, state.Playing, "playing flag persists until the next echo")
}

func TestLoadClearLoadRoundTrip(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	sng := testSong(t, seg(95, 12, 2, 3, 7))

	s.LoadSong(sng)
	first := sink.calls
	s.ClearSong()
	sink.reset()
	s.LoadSong(sng)

	assert.Equal(t, first, sink.calls)
}

func TestCustomBoundaryBeat(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink, WithBoundaryBeat(1))
	s.LoadSong(testSong(t, seg(120, 8, 4, 0, 0)))
	s.HandleTransportState(true)

	s.HandleBeat(1) // Fresh -> Steady
	s.HandleBeat(0) // not a boundary here
	assert.Equal(t, 1, s.Snapshot().Repetition)
	s.HandleBeat(1)
	assert.Equal(t, 2, s.Snapshot().Repetition)
}

func TestTempoEchoIsDisplayOnly(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)
	s.LoadSong(testSong(t, seg(120, 8, 1, 0, 0)))
	sink.reset()

	s.HandleTempoEcho(87.5)

	assert.Empty(t, sink.calls)
	assert.Equal(t, 87.5, s.Snapshot().EngineTempo)
}

func TestUpdatesChannelCoalesces(t *testing.T) {
	sink := &fakeSink{}
	s := New(sink)

	s.HandleBeat(1)
	s.HandleBeat(2)
	s.HandleBeat(3)

	select {
	case <-s.Updates():
	default:
		t.Fatal("expected a pending update")
	}
	select {
	case <-s.Updates():
		t.Fatal("updates must coalesce to one pending notification")
	default:
	}
}
