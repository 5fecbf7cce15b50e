package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-segue/debug"
	"go-segue/scheduler"
	"go-segue/song"
)

// library input modes
type libraryInput int

const (
	libInputNone libraryInput = iota
	libInputNew                // typing a new song name
	libInputRename             // typing a replacement name
	libInputConfirm            // yes/no prompt pending
)

type libraryState struct {
	names    []string
	selected int

	input     libraryInput
	buffer    string
	renameOf  string
	confirmed func(ls *libraryState, store *song.Store, sched *scheduler.Scheduler)
	prompt    string
	message   string
}

func (ls *libraryState) refresh(store *song.Store) {
	names, err := store.List()
	if err != nil {
		ls.message = fmt.Sprintf("list songs: %v", err)
		return
	}
	ls.names = names
	if ls.selected >= len(names) {
		ls.selected = len(names) - 1
	}
	if ls.selected < 0 {
		ls.selected = 0
	}
}

// capturesInput reports whether the library wants raw keystrokes (text
// entry or a pending confirm) instead of global bindings.
func (ls *libraryState) capturesInput() bool {
	return ls.input != libInputNone
}

func (ls *libraryState) handleKey(key string, store *song.Store, sched *scheduler.Scheduler) {
	switch ls.input {
	case libInputNew, libInputRename:
		ls.handleTextKey(key, store, sched)
		return
	case libInputConfirm:
		ls.handleConfirmKey(key, store, sched)
		return
	}

	ls.message = ""

	switch key {
	case "up", "k":
		if ls.selected > 0 {
			ls.selected--
		}
	case "down", "j":
		if ls.selected < len(ls.names)-1 {
			ls.selected++
		}
	case "enter", "l":
		ls.loadSelected(store, sched)
	case "n":
		ls.input = libInputNew
		ls.buffer = ""
	case "r":
		if name, ok := ls.selectedName(); ok {
			ls.input = libInputRename
			ls.renameOf = name
			ls.buffer = name
		}
	case "d":
		if name, ok := ls.selectedName(); ok {
			ls.confirm(fmt.Sprintf("delete %q? (y/n)", name), func(ls *libraryState, store *song.Store, sched *scheduler.Scheduler) {
				ls.deleteSong(name, store, sched)
			})
		}
	case "c":
		if sched.CurrentSong() != nil {
			ls.confirm("clear loaded song? (y/n)", func(ls *libraryState, store *song.Store, sched *scheduler.Scheduler) {
				sched.ClearSong()
				store.RememberLastSong("")
				ls.message = "cleared"
			})
		}
	}
}

func (ls *libraryState) handleTextKey(key string, store *song.Store, sched *scheduler.Scheduler) {
	switch key {
	case "esc":
		ls.input = libInputNone
		ls.buffer = ""
	case "enter":
		ls.commitText(store, sched)
	case "backspace":
		if len(ls.buffer) > 0 {
			ls.buffer = ls.buffer[:len(ls.buffer)-1]
		}
	default:
		// Single printable runes only; ignore control sequences
		if len([]rune(key)) == 1 {
			ls.buffer += key
		}
	}
}

func (ls *libraryState) commitText(store *song.Store, sched *scheduler.Scheduler) {
	name := strings.TrimSpace(ls.buffer)
	mode := ls.input
	ls.input = libInputNone
	ls.buffer = ""
	if name == "" {
		return
	}

	switch mode {
	case libInputNew:
		if store.Exists(name) {
			ls.message = fmt.Sprintf("%q already exists", name)
			return
		}
		s, err := song.New(name)
		if err != nil {
			ls.message = err.Error()
			return
		}
		s.AddSegment(song.DefaultSegment())
		if err := store.Save(s); err != nil {
			ls.message = fmt.Sprintf("save: %v", err)
			return
		}
		sched.LoadSong(s)
		store.RememberLastSong(song.SanitizeName(name))
		ls.refresh(store)
		ls.message = fmt.Sprintf("created %q", name)

	case libInputRename:
		if err := store.Rename(ls.renameOf, name); err != nil {
			ls.message = fmt.Sprintf("rename: %v", err)
			return
		}
		if cur := sched.CurrentSong(); cur != nil && song.SanitizeName(cur.Name()) == song.SanitizeName(ls.renameOf) {
			if err := cur.Rename(name); err == nil {
				if err := store.Save(cur); err != nil {
					debug.Log("tui", "save after rename: %v", err)
				}
			}
			store.RememberLastSong(song.SanitizeName(name))
		}
		ls.refresh(store)
		ls.message = fmt.Sprintf("renamed to %q", name)
	}
}

func (ls *libraryState) handleConfirmKey(key string, store *song.Store, sched *scheduler.Scheduler) {
	action := ls.confirmed
	ls.input = libInputNone
	ls.confirmed = nil
	ls.prompt = ""
	if key == "y" && action != nil {
		action(ls, store, sched)
	}
}

func (ls *libraryState) confirm(prompt string, action func(*libraryState, *song.Store, *scheduler.Scheduler)) {
	ls.input = libInputConfirm
	ls.prompt = prompt
	ls.confirmed = action
}

func (ls *libraryState) selectedName() (string, bool) {
	if ls.selected < 0 || ls.selected >= len(ls.names) {
		return "", false
	}
	return ls.names[ls.selected], true
}

func (ls *libraryState) loadSelected(store *song.Store, sched *scheduler.Scheduler) {
	name, ok := ls.selectedName()
	if !ok {
		return
	}
	if cur := sched.CurrentSong(); cur != nil && cur.Dirty() {
		ls.confirm(fmt.Sprintf("discard unsaved changes and load %q? (y/n)", name),
			func(ls *libraryState, store *song.Store, sched *scheduler.Scheduler) {
				ls.doLoad(name, store, sched)
			})
		return
	}
	ls.doLoad(name, store, sched)
}

func (ls *libraryState) doLoad(name string, store *song.Store, sched *scheduler.Scheduler) {
	s, err := store.Load(name)
	if err != nil {
		ls.message = fmt.Sprintf("load: %v", err)
		return
	}
	sched.LoadSong(s)
	store.RememberLastSong(name)
	ls.message = fmt.Sprintf("loaded %q", s.Name())
}

func (ls *libraryState) deleteSong(name string, store *song.Store, sched *scheduler.Scheduler) {
	if err := store.Delete(name); err != nil {
		ls.message = fmt.Sprintf("delete: %v", err)
		return
	}
	if cur := sched.CurrentSong(); cur != nil && song.SanitizeName(cur.Name()) == song.SanitizeName(name) {
		sched.ClearSong()
		store.RememberLastSong("")
	}
	ls.refresh(store)
	ls.message = fmt.Sprintf("deleted %q", name)
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	loadedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	listStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (ls *libraryState) view(sched *scheduler.Scheduler) string {
	var out strings.Builder

	loadedName := ""
	if cur := sched.CurrentSong(); cur != nil {
		loadedName = song.SanitizeName(cur.Name())
		marker := ""
		if cur.Dirty() {
			marker = " *"
		}
		out.WriteString(loadedStyle.Render("loaded: "+cur.Name()+marker) + "\n\n")
	}

	if len(ls.names) == 0 {
		out.WriteString(messageStyle.Render("no songs yet (n to create)") + "\n")
	}
	for i, name := range ls.names {
		cursor := "  "
		line := name
		if name == loadedName {
			line += " <"
		}
		if i == ls.selected {
			cursor = "> "
			out.WriteString(selectedStyle.Render(cursor+line) + "\n")
		} else {
			out.WriteString(listStyle.Render(cursor+line) + "\n")
		}
	}

	out.WriteString("\n")
	switch ls.input {
	case libInputNew:
		out.WriteString(promptStyle.Render("new song name: "+ls.buffer+"_") + "\n")
	case libInputRename:
		out.WriteString(promptStyle.Render("rename to: "+ls.buffer+"_") + "\n")
	case libInputConfirm:
		out.WriteString(promptStyle.Render(ls.prompt) + "\n")
	default:
		if ls.message != "" {
			out.WriteString(messageStyle.Render(ls.message) + "\n")
		}
		out.WriteString(messageStyle.Render("enter:load  n:new  r:rename  d:delete  c:clear") + "\n")
	}

	return out.String()
}
