package objectkey

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVideoKeyGenerator(t *testing.T) {
	gen := NewVideoKeyGenerator()
	id := uuid.New()

	key := gen.GenerateKey(id)
	assert.Equal(t, fmt.Sprintf("videos/%s.mp4", id), key)

	// deterministic
	assert.Equal(t, key, gen.GenerateKey(id))
}

func TestVideoKeyGeneratorSanitizesPrefix(t *testing.T) {
	gen := &VideoKeyGenerator{Prefix: "field captures/", Extension: ".mp4"}
	id := uuid.New()

	key := gen.GenerateKey(id)
	assert.True(t, strings.HasPrefix(key, "field_captures/"))
	assert.False(t, strings.Contains(key, " "))
}

func TestShardedVideoKeyGenerator(t *testing.T) {
	gen := NewShardedVideoKeyGenerator()
	id := uuid.MustParse("2b7e1516-28ae-d2a6-abf7-158809cf4f3c")

	key := gen.GenerateKey(id)
	assert.Equal(t, "videos/2b/2b7e151628aed2a6abf7158809cf4f3c.mp4", key)
}

func TestShardedVideoKeyGeneratorClampsShardLength(t *testing.T) {
	gen := &ShardedVideoKeyGenerator{Prefix: "videos", Extension: ".mp4", ShardLength: -1}
	id := uuid.New()

	key := gen.GenerateKey(id)
	parts := strings.Split(key, "/")
	assert.Len(t, parts, 3)
	assert.Len(t, parts[1], 2)
}
