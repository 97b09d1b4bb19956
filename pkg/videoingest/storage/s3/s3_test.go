package s3

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "field-video",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.region)
	})
}

func TestPresignUploadShape(t *testing.T) {
	// Presigning is an offline signature computation; no network round trip
	// is needed to verify the capability shape.
	backend, err := New(Config{
		Region:          "us-east-1",
		Bucket:          "field-video",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
	})
	require.NoError(t, err)

	url, err := backend.PresignUpload(context.Background(), "videos/abc.mp4", 16*time.Minute)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://"), "capability must be https-only")
	assert.Contains(t, url, "videos/abc.mp4")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=960")
}
