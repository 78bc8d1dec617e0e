package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var _ KeyValueStore = (*FileStore)(nil)

// FileStore keeps every key in a single JSON object on disk, rewritten on
// each Set.
type FileStore struct {
	filePath string
	logger   *log.Logger
	mu       sync.Mutex
}

func NewFileStore(filePath string, logger *log.Logger) *FileStore {
	if logger == nil {
		panic("FileStore: logger cannot be nil")
	}
	if filePath == "" {
		panic("FileStore: file path cannot be empty")
	}
	return &FileStore{filePath: filePath, logger: logger}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.filePath
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking every write.
		s.logger.Printf("FileStore: discarding unreadable %s: %v", s.filePath, err)
		data = make(map[string]string)
	}
	data[key] = string(value)

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	s.logger.Printf("FileStore: saved %q (%d bytes) to %s", key, len(value), s.filePath)
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	data := make(map[string]string)
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", s.filePath, err)
	}
	if data == nil {
		data = make(map[string]string)
	}
	return data, nil
}
