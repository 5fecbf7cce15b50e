package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Engine.SendHost)
	assert.Equal(t, 9001, cfg.Engine.SendPort)
	assert.Equal(t, 9002, cfg.Engine.ReceivePort)
	assert.Equal(t, 0, cfg.Engine.InstanceIndex)
	assert.Equal(t, "X-TOUCH MINI", cfg.Surface.PortName)
	assert.Equal(t, 0, cfg.Playback.BoundaryBeat)
}

func TestLoadFileMissingFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFilePartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"engine":{"sendHost":"10.0.0.5","sendPort":7001,"receiveHost":"0.0.0.0","receivePort":7002},"playback":{"boundaryBeat":1}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Engine.SendHost)
	assert.Equal(t, 7001, cfg.Engine.SendPort)
	assert.Equal(t, 1, cfg.Playback.BoundaryBeat)
	// Untouched sections keep their defaults
	assert.Equal(t, "X-TOUCH MINI", cfg.Surface.PortName)
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSongsPathOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SongsDir = "/tmp/setlists"
	dir, err := cfg.SongsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/setlists", dir)

	cfg.SongsDir = ""
	dir, err = cfg.SongsPath()
	require.NoError(t, err)
	assert.Contains(t, dir, filepath.Join(".config", "go-segue", "songs"))
}
