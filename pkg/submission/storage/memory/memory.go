// Package memory implements an in-memory object store for tests and
// development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chatficdb/chatficdb/pkg/submission"
)

// Store is an in-memory implementation of submission.ObjectStore.
type Store struct {
	mu         sync.RWMutex
	objects    map[string][]byte
	uploadErrs map[string]error
}

// New creates a new in-memory object store.
func New() *Store {
	return &Store{
		objects:    make(map[string][]byte),
		uploadErrs: make(map[string]error),
	}
}

// GrantUpload returns a fake grant; uploads against it are simulated with
// Put.
func (s *Store) GrantUpload(ctx context.Context, key string, minSize, maxSize int64, expires time.Duration) (*submission.UploadGrant, error) {
	return &submission.UploadGrant{
		URL: "memory://" + key,
		Fields: map[string]string{
			"key":                  key,
			"content-length-range": fmt.Sprintf("%d,%d", minSize, maxSize),
		},
		ExpiresAt: time.Now().UTC().Add(expires),
	}, nil
}

// Upload writes an object directly.
func (s *Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.uploadErrs[key]; ok {
		return &submission.StorageError{Key: key, Op: "upload", Err: err}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return &submission.StorageError{Key: key, Op: "upload", Err: err}
	}
	s.objects[key] = data
	return nil
}

// Exists probes for an object.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Download fetches an object.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, &submission.StorageError{Key: key, Op: "download", Err: fmt.Errorf("object not found")}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put simulates a client upload against a previously issued grant.
func (s *Store) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
}

// SetUploadError makes future direct uploads of key fail with err.
func (s *Store) SetUploadError(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadErrs[key] = err
}
