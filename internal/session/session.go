package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"karolbroda.com/setlist/internal/dataset"
	"karolbroda.com/setlist/internal/logging"
	"karolbroda.com/setlist/internal/playlist"
)

// Session owns the playlist for one source file for the length of a run.
type Session struct {
	Playlist *playlist.Playlist
	Source   string
	Report   dataset.Report
	Restored bool

	store *Store
	rng   *rand.Rand
}

type Options struct {
	Source string
	Store  *Store // nil disables snapshots
	// ShuffleSeed makes Shuffle deterministic when non-zero.
	ShuffleSeed uint64
	// Fresh ignores any saved snapshot.
	Fresh bool
}

// Open restores a snapshot taken against the current version of the source
// file, otherwise it loads the file. a missing file gives an empty playlist.
func Open(opts Options) (*Session, error) {
	if opts.Source == "" {
		return nil, errors.New("empty playlist path")
	}

	source, err := filepath.Abs(opts.Source)
	if err != nil {
		source = opts.Source
	}

	s := &Session{
		Playlist: playlist.New(),
		Source:   source,
		store:    opts.Store,
	}
	if opts.ShuffleSeed != 0 {
		s.rng = rand.New(rand.NewPCG(opts.ShuffleSeed, opts.ShuffleSeed>>1|1))
	}

	modTime, err := sourceModTime(source)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if !opts.Fresh && s.store != nil {
		if s.restore(modTime) {
			return s, nil
		}
	}

	if errors.Is(err, os.ErrNotExist) {
		logging.Info("%s not found, starting with an empty playlist", source)
		return s, nil
	}

	report, err := dataset.LoadFile(source, s.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	s.Report = report
	return s, nil
}

func (s *Session) restore(modTime int64) bool {
	snap, err := s.store.Get(s.Source)
	if err != nil {
		if !errors.Is(err, ErrSnapshotMiss) {
			logging.Warn("discarding saved session for %s: %v", s.Source, err)
		}
		return false
	}

	if snap.SourceModTime != modTime {
		logging.Debug("saved session for %s is stale", s.Source)
		return false
	}

	s.Playlist = playlist.FromRecords(snap.Records)
	if snap.CursorIndex >= 0 {
		s.Playlist.Seek(snap.CursorIndex)
	}
	s.Restored = true
	logging.Debug("restored %d songs from saved session", s.Playlist.Len())
	return true
}

func sourceModTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

// Commit writes the playlist back to its source file and saves the cursor.
func (s *Session) Commit() error {
	if err := dataset.ExportFile(s.Source, s.Playlist); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Source, err)
	}
	return s.SaveCursor()
}

// SaveCursor persists the snapshot only, the source file is left alone.
func (s *Session) SaveCursor() error {
	if s.store == nil {
		return nil
	}

	modTime, err := sourceModTime(s.Source)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	snap := &Snapshot{
		SourceModTime: modTime,
		Records:       s.Playlist.Forward(),
		CursorIndex:   s.Playlist.CursorIndex(),
	}
	if err := s.store.Set(s.Source, snap); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ExportTo writes the playlist to another file without touching the source.
func (s *Session) ExportTo(path string) error {
	return dataset.ExportFile(path, s.Playlist)
}

func (s *Session) Shuffle() bool {
	return s.Playlist.ShuffleWith(s.rng)
}

func (s *Session) Forget() error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(s.Source)
}
