package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// JSONFile keeps the knowledge base in a single JSON document.
type JSONFile struct {
	path string

	mu   sync.Mutex
	last [sha256.Size]byte // digest of the document last read or written
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the document location.
func (s *JSONFile) Path() string {
	return s.path
}

// Load reads the document, or returns the default entities if it does not
// exist yet.
func (s *JSONFile) Load(ctx context.Context) ([]knowledge.Entity, error) {
	data, err := os.ReadFile(s.path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return knowledge.DefaultEntities(), nil
		}
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	entities, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	s.remember(data)
	return entities, nil
}

// Save rewrites the whole document. It writes a temporary file and renames
// it over the old one so readers never see a partial document.
func (s *JSONFile) Save(ctx context.Context, entities []knowledge.Entity) error {
	data, err := EncodeDocument(entities)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create knowledge base directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	prev := s.remember(data)
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.restore(prev)
		return fmt.Errorf("failed to replace knowledge base: %w", err)
	}
	return nil
}

func (s *JSONFile) remember(data []byte) (prev [sha256.Size]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.last
	s.last = sha256.Sum256(data)
	return prev
}

func (s *JSONFile) restore(sum [sha256.Size]byte) {
	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()
}

// Changed reports whether the document on disk differs from the one this
// store last read or wrote.
func (s *JSONFile) Changed() bool {
	data, err := os.ReadFile(s.path) // #nosec G304
	if err != nil {
		return !os.IsNotExist(err)
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.last
}

// Watch calls onChange when another process rewrites the document. The
// store's own saves are not reported.
func (s *JSONFile) Watch(onChange func(), onError func(error)) (*Watcher, error) {
	return Watch(s.path, func() {
		if s.Changed() {
			onChange()
		}
	}, onError)
}

// Close is a no-op; it lets JSONFile satisfy the same shape as the other
// backends.
func (s *JSONFile) Close() error {
	return nil
}
