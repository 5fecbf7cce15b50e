package song

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"My Song":          "My-Song",
		"a/b\\c:d":         "abcd",
		"  spaced  out  ":  "spaced-out",
		"---":              "untitled",
		"":                 "untitled",
		"already-fine":     "already-fine",
		"tabs\tand\nlines": "tabs-and-lines",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := NewStore(t.TempDir())

	s, err := New("Set One")
	require.NoError(t, err)
	seg := DefaultSegment()
	seg.Program1 = 12
	seg.Repetitions = 3
	seg.AutoStop = true
	s.AddSegment(seg)
	require.True(t, s.Dirty())

	require.NoError(t, st.Save(s))
	assert.False(t, s.Dirty())
	assert.True(t, st.Exists("Set One"))

	loaded, err := st.Load("Set-One")
	require.NoError(t, err)
	assert.Equal(t, "Set One", loaded.Name())
	assert.Equal(t, s.Segments(), loaded.Segments())
	assert.False(t, loaded.Dirty())
}

func TestListSortedJSONOnly(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		s, err := New(name)
		require.NoError(t, err)
		require.NoError(t, st.Save(s))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	names, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "nope"))
	names, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoadClampsAndFallsBackToBasename(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir)

	data := `{"segments":[{"tempo":9999,"loopLength":2,"repetitions":0,"extra":"ignored"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mystery.json"), []byte(data), 0644))

	s, err := st.Load("mystery")
	require.NoError(t, err)
	assert.Equal(t, "mystery", s.Name())

	seg, err := s.Segment(0)
	require.NoError(t, err)
	assert.Equal(t, MaxTempo, seg.Tempo)
	assert.Equal(t, MinLoopLength, seg.LoopLength)
	assert.Equal(t, MinRepetitions, seg.Repetitions)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0644))

	_, err := st.Load("bad")
	assert.Error(t, err)
}

func TestRenameRefusesOverwrite(t *testing.T) {
	st := NewStore(t.TempDir())
	for _, name := range []string{"one", "two"} {
		s, err := New(name)
		require.NoError(t, err)
		require.NoError(t, st.Save(s))
	}

	assert.Error(t, st.Rename("one", "two"))
	require.NoError(t, st.Rename("one", "three"))
	assert.False(t, st.Exists("one"))
	assert.True(t, st.Exists("three"))
}

func TestDelete(t *testing.T) {
	st := NewStore(t.TempDir())
	s, err := New("gone")
	require.NoError(t, err)
	require.NoError(t, st.Save(s))

	require.NoError(t, st.Delete("gone"))
	assert.False(t, st.Exists("gone"))
}

func TestLastSongPreference(t *testing.T) {
	st := NewStore(t.TempDir())
	assert.Empty(t, st.LastSong())

	st.RememberLastSong("encore")
	assert.Equal(t, "encore", st.LastSong())

	st.RememberLastSong("")
	assert.Empty(t, st.LastSong())
}
