package scheduler

import (
	"fmt"

	"go-segue/song"
)

// Play symbols, as shown on the playback screen
const (
	SymbolPlaying = ">"
	SymbolStopped = "||"
)

// Status is a display-ready snapshot of the playback position
type Status struct {
	PlaySymbol     string
	SegmentText    string // "Seg:2/5" or "Seg:-/-"
	RepetitionText string // "Rep:1/4" or "Rep:-/-"
	BeatText       string // "Beat:7"
	TempoText      string // "Tempo:120.0" or "Tempo:-"

	// PlayingSegment is the index of the sounding segment, nil whenever no
	// song is loaded or the index is out of range. Callers must treat nil
	// distinctly from index 0.
	PlayingSegment *int

	SongName string
}

// Project derives a Status from a state snapshot and the loaded song.
// Pure: no side effects, no scheduler access.
func Project(state PlaybackState, s *song.Song) Status {
	st := Status{
		PlaySymbol:     SymbolStopped,
		SegmentText:    "Seg:-/-",
		RepetitionText: "Rep:-/-",
		BeatText:       fmt.Sprintf("Beat:%d", state.Beat),
		TempoText:      "Tempo:-",
	}
	if state.Playing {
		st.PlaySymbol = SymbolPlaying
	}
	if state.EngineTempo > 0 {
		st.TempoText = fmt.Sprintf("Tempo:%.1f", state.EngineTempo)
	}
	if s == nil {
		return st
	}

	st.SongName = s.Name()

	seg, err := s.Segment(state.SegmentIndex)
	if err != nil {
		return st
	}

	idx := state.SegmentIndex
	st.PlayingSegment = &idx
	st.SegmentText = fmt.Sprintf("Seg:%d/%d", idx+1, s.Len())
	st.RepetitionText = fmt.Sprintf("Rep:%d/%d", state.Repetition, seg.Repetitions)
	return st
}
