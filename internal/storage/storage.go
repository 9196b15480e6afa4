package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

const filePerm = 0o644

// Storage loads and persists INI documents addressed by path.
type Storage interface {
	Exists(path string) bool
	Load(path string) (*Document, error)
	Save(path string, doc *Document) error
}

// FileStorage reads and writes documents on the local filesystem. Save
// rewrites the whole file in place; there is no lock and no atomic rename.
type FileStorage struct{}

// NewFileStorage returns a filesystem-backed Storage.
func NewFileStorage() *FileStorage {
	return &FileStorage{}
}

// Exists reports whether path names an existing filesystem entry.
func (s *FileStorage) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Load parses the file at path. A missing file yields an empty document.
func (s *FileStorage) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// Save overwrites the file at path with the serialised document.
func (s *FileStorage) Save(path string, doc *Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MemoryStorage keeps raw file contents in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStorage returns an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string][]byte)}
}

// Put seeds path with raw INI text.
func (s *MemoryStorage) Put(path string, data []byte) {
	s.mu.Lock()
	s.files[path] = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Contents returns a copy of the raw text stored at path.
func (s *MemoryStorage) Contents(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

func (s *MemoryStorage) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[path]
	return ok
}

func (s *MemoryStorage) Load(path string) (*Document, error) {
	data, ok := s.Contents(path)
	if !ok {
		return NewDocument(), nil
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

func (s *MemoryStorage) Save(path string, doc *Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	s.Put(path, data)
	return nil
}
