package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-segue/config"
	"go-segue/debug"
	"go-segue/engine"
	"go-segue/midi"
	"go-segue/scheduler"
	"go-segue/song"
	"go-segue/tui"
)

var (
	flagConfig   string
	flagSongsDir string
	flagDebugLog string
	flagNoMIDI   bool
)

var rootCmd = &cobra.Command{
	Use:   "go-segue",
	Short: "Live segment scheduler for an external loop engine",
	Long: `go-segue drives an external audio engine over OSC during live
performance: it holds the song (an ordered list of segments), listens to
the engine's beat and pre-roll events, and lands tempo, program and loop
changes exactly on loop boundaries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (default ~/.config/go-segue/config.json)")
	rootCmd.Flags().StringVar(&flagSongsDir, "songs", "", "songs directory (overrides config)")
	rootCmd.Flags().StringVar(&flagDebugLog, "debug-log", "", "write category debug log to this file")
	rootCmd.Flags().BoolVar(&flagNoMIDI, "no-midi", false, "disable the MIDI control surface")
}

func run() error {
	if flagDebugLog != "" {
		if err := debug.Enable(flagDebugLog); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flagSongsDir != "" {
		cfg.SongsDir = flagSongsDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := engine.NewClient(cfg.Engine.SendHost, cfg.Engine.SendPort, cfg.Engine.InstanceIndex)
	sched := scheduler.New(client, scheduler.WithBoundaryBeat(cfg.Playback.BoundaryBeat))

	server, err := engine.NewServer(cfg.Engine.ReceiveHost, cfg.Engine.ReceivePort, cfg.Engine.InstanceIndex, sched)
	if err != nil {
		return fmt.Errorf("engine server: %w", err)
	}
	go func() {
		if err := server.Run(ctx); err != nil {
			debug.Log("main", "engine server: %v", err)
		}
	}()

	var surface *midi.Surface
	if !flagNoMIDI {
		surface = midi.NewSurface(cfg.Surface.PortName, cfg.Surface.Channel)
		go surface.Run(ctx)
	}

	songsDir, err := cfg.SongsPath()
	if err != nil {
		return fmt.Errorf("songs dir: %w", err)
	}
	store := song.NewStore(songsDir)
	watcher := song.NewWatcher(store)
	go watcher.Run(ctx)

	// Reopen whatever was loaded last session
	if last := store.LastSong(); last != "" {
		if s, err := store.Load(last); err == nil {
			sched.LoadSong(s)
		} else {
			debug.Log("main", "last song %q: %v", last, err)
		}
	}

	model := tui.NewModel(sched, store, surface, watcher)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
