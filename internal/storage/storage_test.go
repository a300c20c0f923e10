package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptly/apiserver/config"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("pets", "JPG")
	assert.True(t, strings.HasPrefix(key, "pets/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ObjectKey("pets", "JPG"))
}

func TestOpenDisabled(t *testing.T) {
	for _, backend := range []string{"", "none", "NONE"} {
		s, err := Open(context.Background(), config.StorageConfig{Backend: backend})
		require.NoError(t, err)
		assert.Nil(t, s)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "s3"})
	require.Error(t, err)
}

func TestMinioConfigValidation(t *testing.T) {
	_, err := NewMinioStore(config.MinioConfig{Endpoint: "localhost:9000", Bucket: "adoptly"})
	require.ErrorContains(t, err, "access key")
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, s)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "pets/a.png", strings.NewReader("png"), 3, "image/png"))

	body, err := s.Get(ctx, "pets/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(ctx, "pets/a.png"))
	require.NoError(t, s.Delete(ctx, "pets/a.png"))
	_, err = s.Get(ctx, "pets/a.png")
	require.ErrorIs(t, err, ErrObjectNotFound)
}
