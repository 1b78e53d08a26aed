// Package memory contains an in-memory archive.BlobStore for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// BlobStore records stored objects for inspection.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	failNow bool
}

// New returns an empty memory BlobStore.
func New() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

// FailWrites makes every subsequent PutObject return an error.
func (s *BlobStore) FailWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNow = true
}

// PutObject stores the payload under objectPath and returns a mem:// URI.
func (s *BlobStore) PutObject(_ context.Context, objectPath string, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNow {
		return "", fmt.Errorf("memory store configured to fail")
	}
	s.objects[objectPath] = data
	return "mem://" + objectPath, nil
}

// Object returns the stored payload for objectPath, if any.
func (s *BlobStore) Object(objectPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[objectPath]
	return data, ok
}

// Len reports how many objects have been stored.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
