package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const defaultFileName = "storage.json"

// FileStore implements store.Store as a single JSON document on disk.
// Reads and writes go through the whole document; the data set is a
// handful of settings and visit timestamps.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// New creates a FileStore backed by path. A directory path gets the default
// file name appended. The file is created lazily on the first write.
func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		absPath = filepath.Join(absPath, defaultFileName)
	}
	return &FileStore{path: absPath}, nil
}

// DefaultPath returns the per-user storage location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prhub", defaultFileName), nil
}

// Path returns the storage file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value for key. A missing or unreadable document behaves as empty.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set stores value under key.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc[key] = string(value)
	return s.save(doc)
}

// SetMany stores all values with a single rewrite of the document.
func (s *FileStore) SetMany(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for k, v := range values {
		doc[k] = string(v)
	}
	return s.save(doc)
}

// Delete removes key from the document.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.save(doc)
}

func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return make(map[string]string)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return make(map[string]string)
	}
	return doc
}

func (s *FileStore) save(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating storage dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing storage: %w", err)
	}
	return nil
}
