package session

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"karolbroda.com/setlist/internal/track"
)

const (
	snapshotVersion = 1
	snapshotExt     = ".snap"
	sessionsDirName = "sessions"
)

var (
	ErrSnapshotMiss    = errors.New("no saved session")
	ErrSnapshotCorrupt = errors.New("saved session corrupt")
)

// Snapshot is the persisted state of one playlist file.
type Snapshot struct {
	Version       uint8
	Source        string
	SourceModTime int64
	Records       []track.Record
	CursorIndex   int
	SavedAt       int64
}

type Store struct {
	basePath string
	mu       sync.RWMutex
}

// NewStore keeps snapshots under stateDir/sessions.
func NewStore(stateDir string) (*Store, error) {
	if stateDir == "" {
		return nil, errors.New("empty state directory")
	}

	sessionsPath := filepath.Join(stateDir, sessionsDirName)
	if err := os.MkdirAll(sessionsPath, 0755); err != nil {
		return nil, err
	}

	return &Store{basePath: sessionsPath}, nil
}

func (s *Store) Dir() string { return s.basePath }

func generateKey(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	hash := sha256.Sum256([]byte(source))
	return hex.EncodeToString(hash[:12])
}

func (s *Store) getFilePath(key string) string {
	return filepath.Join(s.basePath, key+snapshotExt)
}

func (s *Store) Get(source string) (*Snapshot, error) {
	if source == "" {
		return nil, ErrSnapshotMiss
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readFromDisk(s.getFilePath(generateKey(source)))
}

func (s *Store) Set(source string, snap *Snapshot) error {
	if source == "" || snap == nil {
		return errors.New("invalid snapshot")
	}

	snap.Version = snapshotVersion
	snap.Source = source
	snap.SavedAt = time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeToDisk(s.getFilePath(generateKey(source)), snap)
}

func (s *Store) readFromDisk(filePath string) (*Snapshot, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotMiss
		}
		return nil, err
	}
	defer file.Close()

	var snap Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		_ = os.Remove(filePath)
		return nil, ErrSnapshotCorrupt
	}

	// an older format is dropped, never migrated
	if snap.Version != snapshotVersion {
		_ = os.Remove(filePath)
		return nil, ErrSnapshotCorrupt
	}

	return &snap, nil
}

func (s *Store) writeToDisk(filePath string, snap *Snapshot) error {
	// write to temp file first, then rename for atomicity
	tmpPath := filePath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filePath)
}

func (s *Store) Delete(source string) error {
	if source == "" {
		return errors.New("empty source")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.getFilePath(generateKey(source)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) snapshotFiles() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := entries[:0]
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), snapshotExt) {
			files = append(files, entry)
		}
	}
	return files, nil
}

// Clear removes every snapshot and reports how many were removed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.snapshotFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range files {
		if err := os.Remove(filepath.Join(s.basePath, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Stats() (count int, sizeBytes int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.snapshotFiles()
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range files {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}
	return count, sizeBytes, nil
}

// ListAll returns every readable snapshot, corrupt ones are skipped.
func (s *Store) ListAll() ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.snapshotFiles()
	if err != nil {
		return nil, err
	}

	var result []*Snapshot
	for _, entry := range files {
		snap, err := s.readFromDisk(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			continue
		}
		result = append(result, snap)
	}
	return result, nil
}
