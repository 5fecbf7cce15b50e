package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-segue/scheduler"
	"go-segue/song"
)

// editField identifies one editable segment parameter
type editField int

const (
	fieldProgram1 editField = iota
	fieldProgram2
	fieldTempo
	fieldTempoRamp
	fieldLoopLength
	fieldRepetitions
	fieldAutoStop
	numFields
)

var fieldNames = [numFields]string{
	"Prog1", "Prog2", "Tempo", "Ramp", "Loop", "Reps", "Stop",
}

type editState struct {
	segment int
	field   editField
	message string
}

// clampTo keeps the cursor inside the current song
func (es *editState) clampTo(s *song.Song) {
	if s == nil || s.Len() == 0 {
		es.segment = 0
		return
	}
	if es.segment >= s.Len() {
		es.segment = s.Len() - 1
	}
	if es.segment < 0 {
		es.segment = 0
	}
}

func (es *editState) handleKey(key string, sched *scheduler.Scheduler, store *song.Store) {
	s := sched.CurrentSong()
	if s == nil {
		es.message = "no song loaded"
		return
	}

	// Structure stays frozen during playback: the scheduler's position would
	// otherwise dangle mid-performance.
	if sched.Snapshot().Playing {
		if key != "up" && key != "down" && key != "k" && key != "j" &&
			key != "left" && key != "right" && key != "h" && key != "l" {
			es.message = "read-only while playing"
			return
		}
	}

	es.message = ""
	es.clampTo(s)

	switch key {
	case "up", "k":
		if es.segment > 0 {
			es.segment--
		}
	case "down", "j":
		if es.segment < s.Len()-1 {
			es.segment++
		}
	case "left", "h":
		es.field = (es.field + numFields - 1) % numFields
	case "right", "l":
		es.field = (es.field + 1) % numFields
	case "-", "_":
		es.adjust(s, -1, key == "_")
	case "+", "=":
		es.adjust(s, 1, key == "+")
	case "a":
		seg := song.DefaultSegment()
		if s.Len() > 0 {
			// Inherit the selected segment's settings for quick variations
			if cur, err := s.Segment(es.segment); err == nil {
				seg = cur
			}
		}
		if _, err := s.InsertSegment(es.segment+min(1, s.Len()), seg); err != nil {
			s.AddSegment(seg)
		}
		if s.Len() > 1 {
			es.segment++
		}
	case "d":
		if _, err := s.RemoveSegment(es.segment); err != nil {
			es.message = err.Error()
			return
		}
		es.clampTo(s)
	case "s":
		if err := store.Save(s); err != nil {
			es.message = fmt.Sprintf("save: %v", err)
			return
		}
		es.message = "saved"
	}
}

// adjust nudges the selected field. big selects the coarse step for the
// float fields.
func (es *editState) adjust(s *song.Song, dir int, big bool) {
	seg, err := s.Segment(es.segment)
	if err != nil {
		es.message = err.Error()
		return
	}

	fstep := 1.0
	if big {
		fstep = 10.0
	}

	switch es.field {
	case fieldProgram1:
		seg.Program1 += dir
	case fieldProgram2:
		seg.Program2 += dir
	case fieldTempo:
		seg.Tempo += float64(dir) * fstep
	case fieldTempoRamp:
		seg.TempoRamp += float64(dir) * fstep
	case fieldLoopLength:
		seg.LoopLength += dir
	case fieldRepetitions:
		seg.Repetitions += dir
	case fieldAutoStop:
		seg.AutoStop = !seg.AutoStop
	}

	clamped, err := s.SetSegment(es.segment, seg)
	if err != nil {
		es.message = err.Error()
		return
	}
	if clamped {
		es.message = "at range limit"
	}
}

var (
	editCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	editFieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Underline(true)
	editRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	editDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	editWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (es *editState) view(sched *scheduler.Scheduler) string {
	s := sched.CurrentSong()
	if s == nil {
		return editDimStyle.Render("no song loaded") + "\n"
	}

	var out strings.Builder
	marker := ""
	if s.Dirty() {
		marker = " *"
	}
	out.WriteString(editRowStyle.Render(s.Name()+marker) + "\n")
	if sched.Snapshot().Playing {
		out.WriteString(editWarnStyle.Render("playing: edits locked") + "\n")
	}
	out.WriteString("\n")

	if s.Len() == 0 {
		out.WriteString(editDimStyle.Render("no segments (a to add)") + "\n")
	}

	es.clampTo(s)
	for i, seg := range s.Segments() {
		cursor := "  "
		if i == es.segment {
			cursor = "> "
		}

		cells := [numFields]string{
			fmt.Sprintf("%s:%d", fieldNames[fieldProgram1], seg.Program1),
			fmt.Sprintf("%s:%d", fieldNames[fieldProgram2], seg.Program2),
			fmt.Sprintf("%s:%.1f", fieldNames[fieldTempo], seg.Tempo),
			fmt.Sprintf("%s:%.1f", fieldNames[fieldTempoRamp], seg.TempoRamp),
			fmt.Sprintf("%s:%d", fieldNames[fieldLoopLength], seg.LoopLength),
			fmt.Sprintf("%s:%d", fieldNames[fieldRepetitions], seg.Repetitions),
			fmt.Sprintf("%s:%v", fieldNames[fieldAutoStop], seg.AutoStop),
		}

		row := fmt.Sprintf("%s%2d  ", cursor, i+1)
		for f, cell := range cells {
			if i == es.segment && editField(f) == es.field {
				row += editFieldStyle.Render(cell)
			} else {
				row += cell
			}
			row += "  "
		}

		if i == es.segment {
			out.WriteString(editCursorStyle.Render(row) + "\n")
		} else {
			out.WriteString(editRowStyle.Render(row) + "\n")
		}
	}

	out.WriteString("\n")
	if es.message != "" {
		out.WriteString(editDimStyle.Render(es.message) + "\n")
	}
	out.WriteString(editDimStyle.Render("j/k:segment  h/l:field  -/+:adjust (_/+ coarse)  a:add  d:delete  s:save") + "\n")
	return out.String()
}
