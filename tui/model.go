package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-segue/midi"
	"go-segue/scheduler"
	"go-segue/song"
)

// Screen identifies the active view
type Screen int

const (
	ScreenPlayback Screen = iota
	ScreenLibrary
	ScreenEdit
	numScreens
)

func (s Screen) String() string {
	switch s {
	case ScreenPlayback:
		return "PLAYBACK"
	case ScreenLibrary:
		return "LIBRARY"
	case ScreenEdit:
		return "EDIT"
	}
	return "?"
}

type Model struct {
	Sched   *scheduler.Scheduler
	Store   *song.Store
	Surface *midi.Surface

	watcher *song.Watcher
	screen  Screen

	library libraryState
	edit    editState

	quitting bool
}

// UpdateMsg means scheduler state changed
type UpdateMsg struct{}

// LibraryChangedMsg means song files changed on disk
type LibraryChangedMsg struct{}

// CommandMsg carries a control surface command
type CommandMsg midi.Command

func NewModel(sched *scheduler.Scheduler, store *song.Store, surface *midi.Surface, watcher *song.Watcher) Model {
	m := Model{
		Sched:   sched,
		Store:   store,
		Surface: surface,
		watcher: watcher,
		screen:  ScreenPlayback,
	}
	m.library.refresh(store)
	return m
}

func listenForUpdates(sched *scheduler.Scheduler) tea.Cmd {
	return func() tea.Msg {
		<-sched.Updates()
		return UpdateMsg{}
	}
}

func listenForLibraryChanges(w *song.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changes()
		return LibraryChangedMsg{}
	}
}

func listenForCommands(surface *midi.Surface) tea.Cmd {
	if surface == nil {
		return nil
	}
	return func() tea.Msg {
		cmd, ok := <-surface.Commands()
		if !ok {
			return nil
		}
		return CommandMsg(cmd)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenForUpdates(m.Sched),
		listenForLibraryChanges(m.watcher),
		listenForCommands(m.Surface),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		if m.Surface != nil {
			m.Surface.SetPlayingLED(m.Sched.Snapshot().Playing)
		}
		return m, listenForUpdates(m.Sched)

	case LibraryChangedMsg:
		m.library.refresh(m.Store)
		return m, listenForLibraryChanges(m.watcher)

	case CommandMsg:
		return m.handleCommand(midi.Command(msg))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry and confirm prompts capture everything
	if m.screen == ScreenLibrary && m.library.capturesInput() {
		m.library.handleKey(msg.String(), m.Store, m.Sched)
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.screen = (m.screen + 1) % numScreens
		m.enterScreen()
		return m, nil

	case "shift+tab":
		m.screen = (m.screen + numScreens - 1) % numScreens
		m.enterScreen()
		return m, nil

	case " ":
		if m.Sched.Snapshot().Playing {
			m.Sched.Stop()
		} else {
			m.Sched.Continue()
		}
		return m, nil

	case "a":
		// Arm: prime the engine from a stopped state
		if m.screen != ScreenEdit && !m.Sched.Snapshot().Playing {
			m.Sched.Prime()
			return m, nil
		}
	}

	switch m.screen {
	case ScreenLibrary:
		m.library.handleKey(msg.String(), m.Store, m.Sched)
	case ScreenEdit:
		m.edit.handleKey(msg.String(), m.Sched, m.Store)
	}
	return m, nil
}

func (m Model) handleCommand(cmd midi.Command) (tea.Model, tea.Cmd) {
	switch cmd {
	case midi.CmdContinue:
		m.Sched.Continue()
	case midi.CmdStop:
		m.Sched.Stop()
	case midi.CmdPrime:
		m.Sched.Prime()
	case midi.CmdNextScreen:
		m.screen = (m.screen + 1) % numScreens
		m.enterScreen()
	case midi.CmdPrevScreen:
		m.screen = (m.screen + numScreens - 1) % numScreens
		m.enterScreen()
	case midi.CmdExit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, listenForCommands(m.Surface)
}

// enterScreen runs a screen's activation refresh
func (m *Model) enterScreen() {
	switch m.screen {
	case ScreenLibrary:
		m.library.refresh(m.Store)
	case ScreenEdit:
		m.edit.clampTo(m.Sched.CurrentSong())
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	status := m.Sched.Status()

	surfaceTag := ""
	if m.Surface != nil && m.Surface.Connected() {
		surfaceTag = "  [surface]"
	}

	header := headerStyle.Render("go-segue  " + m.screen.String() + surfaceTag)

	var body string
	switch m.screen {
	case ScreenPlayback:
		body = renderPlayback(status)
	case ScreenLibrary:
		body = m.library.view(m.Sched)
	case ScreenEdit:
		body = m.edit.view(m.Sched)
	}

	help := dimStyle.Render("tab:screen  space:play/stop  a:prime  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n")
	out.WriteString(help)
	return out.String()
}
