package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/adoptly/apiserver/config"
	"github.com/adoptly/apiserver/internal/metrics"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// imageCacheControl is attached to stored images. Keys are never reused, so
// an object can be cached for as long as it exists.
const imageCacheControl = "public, max-age=31536000, immutable"

// ObjectStorage is implemented by the MinIO, GCS and in-memory backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage holds pet and profile images and counts every call by outcome.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected by cfg.Backend and makes sure its bucket
// exists. It returns (nil, nil) when image storage is disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = NewMinioStore(cfg.Minio)
	case "gcs":
		backend, err = NewGCSStore(ctx, cfg.GCS)
	case "memory":
		backend = NewMemoryStorage("memory")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

// ObjectKey returns a fresh, collision-free key under prefix, keeping ext.
// ObjectKey("pets", ".jpg") yields "pets/<uuid>.jpg".
func ObjectKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, uuid.NewString()+strings.ToLower(ext))
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	err := s.backend.Put(ctx, key, r, size, contentType)
	observe("put", err)
	return err
}

func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.backend.Get(ctx, key)
	observe("get", err)
	return body, err
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.backend.Delete(ctx, key)
	observe("delete", err)
	return err
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func observe(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrObjectNotFound):
		result = "missing"
	case err != nil:
		result = "error"
	}
	metrics.ImageOperations.WithLabelValues(op, result).Inc()
}
