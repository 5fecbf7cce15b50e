package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EngineConfig defines the OSC link to the audio engine (an RNBO patch)
type EngineConfig struct {
	SendHost      string `json:"sendHost"`
	SendPort      int    `json:"sendPort"`
	ReceiveHost   string `json:"receiveHost"`
	ReceivePort   int    `json:"receivePort"`
	InstanceIndex int    `json:"instanceIndex,omitempty"`
}

// SurfaceConfig defines the physical control surface
type SurfaceConfig struct {
	PortName string `json:"portName"`
	Channel  uint8  `json:"channel,omitempty"` // MIDI channel for button CCs (0-based)
}

// PlaybackConfig stores scheduler tunables
type PlaybackConfig struct {
	// BoundaryBeat is the beat value the engine reports at the start of a
	// loop. Confirm against the engine before changing; some firmwares
	// count 1-based.
	BoundaryBeat int `json:"boundaryBeat"`
}

// Config is the main configuration structure
type Config struct {
	Engine   EngineConfig   `json:"engine"`
	Surface  SurfaceConfig  `json:"surface"`
	Playback PlaybackConfig `json:"playback"`
	SongsDir string         `json:"songsDir,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SendHost:    "127.0.0.1",
			SendPort:    9001,
			ReceiveHost: "127.0.0.1",
			ReceivePort: 9002,
		},
		Surface: SurfaceConfig{
			PortName: "X-TOUCH MINI",
			Channel:  10,
		},
		Playback: PlaybackConfig{
			BoundaryBeat: 0,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-segue"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config from an explicit path, falling back to defaults
// when the file does not exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SongsPath returns the configured songs directory, or the default
// ~/.config/go-segue/songs.
func (c *Config) SongsPath() (string, error) {
	if c.SongsDir != "" {
		return c.SongsDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "songs"), nil
}
