package song

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// Parameter ranges. Every numeric segment field is kept inside its closed
// range; writes outside it are clamped and reported, never dropped.
const (
	MinTempo = 30.0
	MaxTempo = 300.0

	MinRamp = 0.0
	MaxRamp = 300.0

	MinLoopLength = 8
	MaxLoopLength = 128

	MinRepetitions = 1
	MaxRepetitions = 128

	MinProgram = 0
	MaxProgram = 127
)

// Segment is one section of a song: its own tempo, program selects, loop
// length and repeat count. Value semantics; the owning Song hands out copies.
type Segment struct {
	Program1    int     `json:"program1"`    // program select 1 (0-127)
	Program2    int     `json:"program2"`    // program select 2 (0-127)
	Tempo       float64 `json:"tempo"`       // BPM (30-300)
	TempoRamp   float64 `json:"tempoRamp"`   // seconds to ramp into this tempo, 0 = instant
	LoopLength  int     `json:"loopLength"`  // beats per loop (8-128)
	Repetitions int     `json:"repetitions"` // loops before moving on (1-128)
	AutoStop    bool    `json:"autoStop"`    // stop transport after this segment
}

// DefaultSegment returns a segment with the defaults a fresh section gets
func DefaultSegment() Segment {
	return Segment{
		Tempo:       120.0,
		LoopLength:  16,
		Repetitions: 1,
	}
}

// Clamped returns a copy with every field forced into range, and whether
// any field actually moved.
func (s Segment) Clamped() (Segment, bool) {
	c := Segment{
		Program1:    lo.Clamp(s.Program1, MinProgram, MaxProgram),
		Program2:    lo.Clamp(s.Program2, MinProgram, MaxProgram),
		Tempo:       lo.Clamp(s.Tempo, MinTempo, MaxTempo),
		TempoRamp:   lo.Clamp(s.TempoRamp, MinRamp, MaxRamp),
		LoopLength:  lo.Clamp(s.LoopLength, MinLoopLength, MaxLoopLength),
		Repetitions: lo.Clamp(s.Repetitions, MinRepetitions, MaxRepetitions),
		AutoStop:    s.AutoStop,
	}
	return c, c != s
}

// Song is an ordered sequence of segments. Insertion order is playback
// order. The dirty flag is set by any mutation and cleared only by a
// successful persist.
//
// Safe for concurrent use: the UI edits a song while the playback side
// reads it from the engine event goroutine, so every method serializes on
// an internal mutex.
type Song struct {
	mu       sync.Mutex
	name     string
	segments []Segment
	dirty    bool
}

// ErrNoSegment is returned for out-of-range segment indices
var ErrNoSegment = errors.New("segment index out of range")

// New creates an empty song. The name must be non-empty.
func New(name string) (*Song, error) {
	if name == "" {
		return nil, errors.New("song name must be non-empty")
	}
	return &Song{name: name}, nil
}

// Name returns the song name
func (s *Song) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Rename changes the song name. Marks the song dirty.
func (s *Song) Rename(name string) error {
	if name == "" {
		return errors.New("song name must be non-empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.dirty = true
	return nil
}

// Len returns the number of segments
func (s *Song) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// Segment returns a copy of the segment at index
func (s *Song) Segment(index int) (Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.segments) {
		return Segment{}, fmt.Errorf("%w: %d of %d", ErrNoSegment, index, len(s.segments))
	}
	return s.segments[index], nil
}

// Segments returns a copy of the segment list
func (s *Song) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// AddSegment appends seg (clamped into range). Returns whether clamping
// occurred.
func (s *Song) AddSegment(seg Segment) bool {
	c, clamped := seg.Clamped()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, c)
	s.dirty = true
	return clamped
}

// InsertSegment inserts seg at index (clamped into range). index == Len
// appends.
func (s *Song) InsertSegment(index int, seg Segment) (bool, error) {
	c, clamped := seg.Clamped()
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index > len(s.segments) {
		return false, fmt.Errorf("%w: insert at %d of %d", ErrNoSegment, index, len(s.segments))
	}
	s.segments = append(s.segments, Segment{})
	copy(s.segments[index+1:], s.segments[index:])
	s.segments[index] = c
	s.dirty = true
	return clamped, nil
}

// SetSegment replaces the segment at index (clamped into range)
func (s *Song) SetSegment(index int, seg Segment) (bool, error) {
	c, clamped := seg.Clamped()
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.segments) {
		return false, fmt.Errorf("%w: %d of %d", ErrNoSegment, index, len(s.segments))
	}
	s.segments[index] = c
	s.dirty = true
	return clamped, nil
}

// RemoveSegment removes and returns the segment at index
func (s *Song) RemoveSegment(index int) (Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.segments) {
		return Segment{}, fmt.Errorf("%w: %d of %d", ErrNoSegment, index, len(s.segments))
	}
	removed := s.segments[index]
	s.segments = append(s.segments[:index], s.segments[index+1:]...)
	s.dirty = true
	return removed, nil
}

// ClearSegments removes all segments
func (s *Song) ClearSegments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.dirty = true
}

// Dirty reports whether the song has unsaved changes
func (s *Song) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// markClean is called by the store after a successful save
func (s *Song) markClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}
