package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is a durable key-value store for small string values.
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// FileStorage keeps all keys in a single JSON object file with 0600 permissions.
type FileStorage struct {
	mu   sync.RWMutex
	path string
}

// NewFileStorage creates a file-backed storage.
// If path is empty, defaults to ~/.config/diagrammer/credentials.json
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "diagrammer", "credentials.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}
	return &FileStorage{path: path}, nil
}

func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove credential file: %w", err)
		}
		return nil
	}
	return s.save(values)
}

// Path returns the credential file path.
func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse credential file: %w", err)
	}
	return values, nil
}

func (s *FileStorage) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic replaces path with data through a 0600 temporary file in
// the same directory. The temporary file is removed on every failure path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = tmp.Chmod(0600); err != nil {
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync credential file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests and ephemeral sessions.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

var (
	_ Storage = (*FileStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
