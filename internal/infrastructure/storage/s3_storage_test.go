package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Enabled:         true,
		Bucket:          "menu-images",
		Region:          "ap-southeast-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket is required", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg, zap.NewNop())
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("defaults the presign expiry", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, testStorageConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiry, s.presignExpiry)
		assert.Equal(t, "menu-images", s.Bucket())
	})
}

func TestS3ObjectStorage_PresignedURLs(t *testing.T) {
	cfg := testStorageConfig()
	cfg.PresignExpiry = 5 * time.Minute
	s, err := NewS3ObjectStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	t.Run("download url is path style against the endpoint", func(t *testing.T) {
		u, expires, err := s.DownloadURL(context.Background(), "tenant/menu/item.jpg")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "http://localhost:9000/menu-images/tenant/menu/item.jpg"))
		assert.Contains(t, u, "X-Amz-Expires=300")
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)
	})

	t.Run("upload url is signed", func(t *testing.T) {
		u, _, err := s.UploadURL(context.Background(), "tenant/menu/item.png", "image/png")
		require.NoError(t, err)
		assert.Contains(t, u, "X-Amz-Signature=")
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		_, _, err := s.DownloadURL(context.Background(), "")
		assert.Error(t, err)
		_, _, err = s.UploadURL(context.Background(), "", "image/png")
		assert.Error(t, err)
		assert.Error(t, s.Put(context.Background(), "", strings.NewReader("x"), 1, "text/plain"))
	})

	t.Run("deleting nothing is a no-op", func(t *testing.T) {
		assert.NoError(t, s.Delete(context.Background(), ""))
	})
}

func TestNew_Disabled(t *testing.T) {
	st, err := New(context.Background(), config.StorageConfig{}, zap.NewNop())
	require.NoError(t, err)

	err = st.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, _, err = st.DownloadURL(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
