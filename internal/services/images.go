package services

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/adoptly/apiserver/internal/storage"
)

// MaxImageBytes bounds pet and profile image uploads.
const MaxImageBytes = 5 << 20

// ErrImagesDisabled is returned when no object storage backend is configured.
var ErrImagesDisabled = errors.New("image storage is not configured")

// ErrImageNotFound is returned when an entity has no stored image.
var ErrImageNotFound = errors.New("image not found")

// ImageStore is the object storage used for pet and profile images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Image is an uploaded image waiting to be stored.
type Image struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageContentType returns the content type for a stored image key.
func ImageContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	for contentType, known := range imageExtensions {
		if known == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}

func checkImage(img Image) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(img.ContentType, ";", 2)[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", NewValidationError("unsupported image type %q", img.ContentType)
	}
	if img.Size <= 0 {
		return "", NewValidationError("image is empty")
	}
	if img.Size > MaxImageBytes {
		return "", NewValidationError("image exceeds %d bytes", MaxImageBytes)
	}
	return ext, nil
}

// storeImage uploads img under prefix and returns the new key.
func storeImage(ctx context.Context, images ImageStore, prefix string, img Image) (string, error) {
	if images == nil {
		return "", ErrImagesDisabled
	}
	ext, err := checkImage(img)
	if err != nil {
		return "", err
	}
	key := storage.ObjectKey(prefix, ext)
	contentType := ImageContentType(key)
	if err := images.Put(ctx, key, img.Body, img.Size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func openImage(ctx context.Context, images ImageStore, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrImageNotFound
	}
	if images == nil {
		return nil, ErrImagesDisabled
	}
	body, err := images.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrImageNotFound
	}
	return body, err
}
