package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/evalhub/authcore/core/logger"
)

// filePerm keeps the state file readable by the owning user only;
// it contains live credentials.
const filePerm = 0o600

// FileStore persists session state in a single JSON file with atomic writes.
// A missing or corrupt file degrades to an empty store rather than failing,
// so a damaged state file can never lock a user out of signing in again.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used for corrupt-state warnings.
func WithFileLogger(log *slog.Logger) FileOption {
	return func(s *FileStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewFileStore creates a file-backed store at the given path, creating parent
// directories as needed. The file itself is created lazily on first write.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.Join(ErrUnavailable, errors.New("state file path is empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	s := &FileStore{
		path: path,
		log:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the value for the key, or ErrNotFound.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.load()
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores the value under the key and rewrites the state file atomically.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.load()
	values[key] = value
	return s.save(values)
}

// Remove deletes the key. Absent keys are ignored.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.load()
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// ClearAll removes the state file, dropping every key at once.
func (s *FileStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// load reads the state file into a map. Missing and corrupt files both yield
// an empty map; corruption is logged because it usually means a partial write
// from a crashed process.
func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read auth state file",
				logger.Component("tokenstore"),
				logger.Error(err),
			)
		}
		return make(map[string]string)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		s.log.Warn("auth state file is corrupt, starting empty",
			logger.Component("tokenstore"),
			logger.Error(err),
		)
		return make(map[string]string)
	}
	return values
}

// save writes the map through a temp file and rename so readers never observe
// a partially written state file.
func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
