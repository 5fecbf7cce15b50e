package song

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go-segue/debug"
)

// Store persists songs as one JSON file per song under a directory.
// Filenames derive from the sanitized song name.
type Store struct {
	dir string
}

// songFile is the on-disk shape
type songFile struct {
	Name     string    `json:"name"`
	Segments []Segment `json:"segments"`
}

// NewStore creates a store rooted at dir (created lazily on first save)
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory
func (st *Store) Dir() string {
	return st.dir
}

var (
	invalidChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// SanitizeName turns a song name into a filesystem-safe basename
func SanitizeName(name string) string {
	name = invalidChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "untitled"
	}
	return name
}

// List returns the available song basenames, sorted
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
	}

	sort.Strings(names)
	return names, nil
}

// Save writes the song to <sanitized-name>.json and clears its dirty flag
func (st *Store) Save(s *Song) error {
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(songFile{
		Name:     s.Name(),
		Segments: s.Segments(),
	}, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(st.dir, SanitizeName(s.Name())+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	s.markClean()
	debug.Log("store", "saved %q to %s", s.Name(), path)
	return nil
}

// Load reads a song by basename. Unknown fields are ignored; segments are
// clamped into range; a missing name falls back to the basename.
func (st *Store) Load(basename string) (*Song, error) {
	basename = strings.TrimSuffix(basename, ".json")
	path := filepath.Join(st.dir, basename+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sf songFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	name := sf.Name
	if name == "" {
		debug.Log("store", "song file %s has no name, using basename", path)
		name = basename
	}

	s, err := New(name)
	if err != nil {
		return nil, err
	}
	for _, seg := range sf.Segments {
		if s.AddSegment(seg) {
			debug.Log("store", "clamped out-of-range segment values in %q", name)
		}
	}
	s.markClean() // a freshly loaded song has no unsaved changes

	debug.Log("store", "loaded %q (%d segments) from %s", name, s.Len(), path)
	return s, nil
}

// Rename renames a song file on disk
func (st *Store) Rename(oldBasename, newBasename string) error {
	oldPath := filepath.Join(st.dir, SanitizeName(oldBasename)+".json")
	newPath := filepath.Join(st.dir, SanitizeName(newBasename)+".json")
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("song %q already exists", newBasename)
	}
	return os.Rename(oldPath, newPath)
}

// Delete removes a song file from disk
func (st *Store) Delete(basename string) error {
	return os.Remove(filepath.Join(st.dir, SanitizeName(basename)+".json"))
}

// Exists reports whether a song file exists for basename
func (st *Store) Exists(basename string) bool {
	_, err := os.Stat(filepath.Join(st.dir, SanitizeName(basename)+".json"))
	return err == nil
}

// Last-song preference: a one-line text file next to the songs dir, so the
// app can reopen whatever was loaded in the previous session.

func (st *Store) prefPath() string {
	return filepath.Join(st.dir, "last_song.txt")
}

// LastSong returns the remembered song basename, or "" if none
func (st *Store) LastSong() string {
	data, err := os.ReadFile(st.prefPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// RememberLastSong stores basename as the session preference. An empty
// basename clears the preference.
func (st *Store) RememberLastSong(basename string) {
	if basename == "" {
		os.Remove(st.prefPath())
		return
	}
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		debug.Log("store", "preference dir: %v", err)
		return
	}
	if err := os.WriteFile(st.prefPath(), []byte(basename), 0644); err != nil {
		debug.Log("store", "preference write: %v", err)
	}
}
