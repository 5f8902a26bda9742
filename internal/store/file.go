package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
)

// FileStore persists each document as <dir>/<key>.json.
//
// Writes go through a temp file and an atomic rename so a crash mid-save
// never leaves a truncated document behind. An exclusive lock file taken at
// open enforces a single writer per data directory: whole-document
// overwrites are not safe against concurrent writers, so a second process
// is refused instead of silently losing updates.
type FileStore struct {
	dir      string
	lockPath string
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewFileStore opens a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lockPath := filepath.Join(dir, ".radar.lock")
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil && os.IsExist(err) && !lockHolderAlive(lockPath) {
		// A crashed process cannot remove its own lock; reclaim it.
		logger.Warn().Str("path", lockPath).Msg("Removing stale lock left by a dead process")
		os.Remove(lockPath)
		lock, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	}
	if err != nil {
		if os.IsExist(err) {
			return nil, apperrors.ErrStoreLocked
		}
		return nil, apperrors.Wrapf(err, "acquiring lock on %s", dir)
	}
	fmt.Fprintf(lock, "%d\n", os.Getpid())
	lock.Close()

	return &FileStore{
		dir:      dir,
		lockPath: lockPath,
		logger:   logger,
	}, nil
}

// Load reads the document stored under key into out. A missing or
// unparseable file leaves out untouched and returns nil.
func (s *FileStore) Load(key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Unreadable document, using default")
		}
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupt document, using default")
		return nil
	}
	return nil
}

// Save writes doc under key, fully replacing prior content.
func (s *FileStore) Save(key string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Indented output keeps the documents hand-inspectable, matching the
	// files earlier releases wrote.
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return apperrors.NewStoreError("save", key, err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return apperrors.NewStoreError("save", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStoreError("save", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStoreError("save", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStoreError("save", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStoreError("save", key, err)
	}
	return nil
}

// lockHolderAlive reports whether the process recorded in the lock file
// still exists. The file always records the owning pid, so unreadable or
// garbled content counts as a leftover, not a live holder.
func lockHolderAlive(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	sigErr := proc.Signal(syscall.Signal(0))
	return sigErr == nil || apperrors.Is(sigErr, syscall.EPERM)
}

// Close releases the data directory lock.
func (s *FileStore) Close() error {
	return os.Remove(s.lockPath)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)
