package chunkstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when no chunk set exists for the file,
	// including a second reassembly attempt after cleanup.
	ErrNotFound = errors.New("chunk set not found")

	// ErrIncomplete is returned when reassembly is requested before
	// every chunk index has been received.
	ErrIncomplete = errors.New("chunk set incomplete")
)

// Store persists uploaded byte ranges keyed by (fileID, chunkIndex) and
// detects completion. Chunks live under <dir>/<fileID>/<index>.part until
// reassembly releases them.
type Store struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a disk-backed chunk store rooted at dir.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	return &Store{
		dir:   dir,
		log:   log,
		locks: map[string]*sync.Mutex{},
	}, nil
}

// lockFor returns the per-file mutex, creating it on first use. Mutations
// for one fileID serialize on it; distinct files never contend.
func (s *Store) lockFor(fileID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[fileID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[fileID] = l
	}
	return l
}

func (s *Store) fileDir(fileID string) string {
	return filepath.Join(s.dir, fileID)
}

func chunkName(index int) string {
	return fmt.Sprintf("%06d.part", index)
}

// Put stores one chunk, overwriting any prior chunk at the same index, and
// reports whether all indices 0..totalChunks-1 are now present. The write
// and the completion check hold the per-file lock, so concurrent uploads
// for the same file cannot observe a torn state.
func (s *Store) Put(fileID string, index, totalChunks int, data []byte) (bool, error) {
	if totalChunks < 1 {
		return false, fmt.Errorf("totalChunks must be >= 1, got %d", totalChunks)
	}
	if index < 0 || index >= totalChunks {
		return false, fmt.Errorf("chunk index %d out of range [0,%d)", index, totalChunks)
	}

	l := s.lockFor(fileID)
	l.Lock()
	defer l.Unlock()

	dir := s.fileDir(fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create chunk dir: %w", err)
	}

	// Write via temp file + rename so a retried upload never leaves a
	// half-written chunk behind.
	tmp, err := os.CreateTemp(dir, chunkName(index)+".tmp")
	if err != nil {
		return false, fmt.Errorf("write chunk: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, fmt.Errorf("write chunk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("write chunk: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, chunkName(index))); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("write chunk: %w", err)
	}

	complete := s.countPresent(fileID, totalChunks) == totalChunks
	s.log.Debug().
		Str("file_id", fileID).
		Int("index", index).
		Int("total", totalChunks).
		Bool("complete", complete).
		Msg("chunk stored")
	return complete, nil
}

// Complete reports whether every chunk index has been received.
func (s *Store) Complete(fileID string, totalChunks int) bool {
	l := s.lockFor(fileID)
	l.Lock()
	defer l.Unlock()
	return s.countPresent(fileID, totalChunks) == totalChunks
}

func (s *Store) countPresent(fileID string, totalChunks int) int {
	dir := s.fileDir(fileID)
	n := 0
	for i := 0; i < totalChunks; i++ {
		if _, err := os.Stat(filepath.Join(dir, chunkName(i))); err == nil {
			n++
		}
	}
	return n
}

// Reassemble concatenates chunk payloads strictly in index order and
// releases the chunk set. A second call for the same fileID returns
// ErrNotFound: cleanup is the single point where partial-upload storage
// is reclaimed.
func (s *Store) Reassemble(fileID string, totalChunks int) ([]byte, error) {
	if totalChunks < 1 {
		return nil, fmt.Errorf("totalChunks must be >= 1, got %d", totalChunks)
	}

	l := s.lockFor(fileID)
	l.Lock()
	defer l.Unlock()

	dir := s.fileDir(fileID)
	if _, err := os.Stat(dir); err != nil {
		return nil, ErrNotFound
	}

	var buf []byte
	for i := 0; i < totalChunks; i++ {
		b, err := os.ReadFile(filepath.Join(dir, chunkName(i)))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: missing chunk %d of %d", ErrIncomplete, i, totalChunks)
			}
			return nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		buf = append(buf, b...)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("release chunk set: %w", err)
	}

	s.mu.Lock()
	delete(s.locks, fileID)
	s.mu.Unlock()

	s.log.Info().
		Str("file_id", fileID).
		Int("chunks", totalChunks).
		Int("bytes", len(buf)).
		Msg("chunk set reassembled")
	return buf, nil
}

// FileID derives a filesystem-safe identifier from a caller-supplied file
// name. Path components are stripped so an upload name can never escape
// the chunk directory.
func FileID(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return "_"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
