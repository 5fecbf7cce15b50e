package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-segue/scheduler"
)

var (
	playSymbolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	stopSymbolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	positionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	tempoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	songNameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	noSongStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// renderPlayback draws the live position readout: play symbol, segment,
// repetition, beat and the engine's echoed tempo.
func renderPlayback(status scheduler.Status) string {
	var out strings.Builder

	if status.SongName == "" {
		out.WriteString(noSongStyle.Render("no song loaded"))
		out.WriteString("\n\n")
	} else {
		out.WriteString(songNameStyle.Render(status.SongName))
		out.WriteString("\n\n")
	}

	symbol := stopSymbolStyle.Render(status.PlaySymbol)
	if status.PlaySymbol == scheduler.SymbolPlaying {
		symbol = playSymbolStyle.Render(status.PlaySymbol)
	}

	out.WriteString("  " + symbol + "  ")
	out.WriteString(positionStyle.Render(status.SegmentText))
	out.WriteString("  ")
	out.WriteString(positionStyle.Render(status.RepetitionText))
	out.WriteString("  ")
	out.WriteString(positionStyle.Render(status.BeatText))
	out.WriteString("\n\n  ")
	out.WriteString(tempoStyle.Render(status.TempoText))
	out.WriteString("\n")

	return out.String()
}
