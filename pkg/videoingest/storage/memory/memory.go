package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

// Backend is an in-memory implementation of the videoingest.BlobStore
// interface, used by tests and the development profile. Presigned URLs are
// synthetic; the "direct upload" step is simulated with Upload.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// EnsureBucket is a no-op for the memory backend.
func (b *Backend) EnsureBucket(ctx context.Context) error {
	return nil
}

// PresignUpload returns a synthetic capability URL for the object key.
func (b *Backend) PresignUpload(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	expires := time.Now().UTC().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s?expires=%d", objectKey, expires), nil
}

// Exists probes whether an object is present.
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[objectKey]
	return exists, nil
}

// Size returns the object size in bytes.
func (b *Backend) Size(ctx context.Context, objectKey string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return 0, videoingest.ErrObjectNotFound
	}
	return int64(len(data)), nil
}

// Upload writes content directly.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	return nil
}
