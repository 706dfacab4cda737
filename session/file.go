package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the file FileStore uses inside the state dir
const FileName = "session.json"

// CorruptSuffix is appended to a session file that could not be parsed
const CorruptSuffix = ".corrupt"

// FileStore keeps every key in one json object on disk
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Get reads one key
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set writes one key, keeping the others
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, _, err := s.loadForWrite()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Delete removes one key. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, setAside, err := s.loadForWrite()
	if err != nil {
		return err
	}
	if setAside {
		// nothing readable is left at path
		return nil
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return data, nil
}

// loadForWrite is load for Set and Delete. A corrupt file is renamed to
// path+CorruptSuffix and writing starts over from an empty map.
func (s *FileStore) loadForWrite() (data map[string]string, setAside bool, err error) {
	data, err = s.load()
	if !errors.Is(err, ErrCorrupt) {
		return data, false, err
	}
	if err := os.Rename(s.path, s.path+CorruptSuffix); err != nil {
		return nil, false, fmt.Errorf("failed to move corrupt session file: %w", err)
	}
	return map[string]string{}, true, nil
}

func (s *FileStore) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// write then rename so a crash never leaves half a file behind
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
