package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates the storage object key for an asset
	GenerateKey(assetID uuid.UUID) string
}

// VideoKeyGenerator produces the flat layout used by capture devices:
// videos/{assetID}.mp4. The path is deterministic so a finalize call can be
// checked against the capability it was issued for.
type VideoKeyGenerator struct {
	Prefix    string
	Extension string
}

func NewVideoKeyGenerator() *VideoKeyGenerator {
	return &VideoKeyGenerator{
		Prefix:    "videos",
		Extension: ".mp4",
	}
}

func (g *VideoKeyGenerator) GenerateKey(assetID uuid.UUID) string {
	return fmt.Sprintf("%s/%s%s", sanitizePathComponent(g.Prefix), assetID, g.Extension)
}

// ShardedVideoKeyGenerator spreads objects across prefix shards derived from
// the asset id, for buckets with very large fleets:
// videos/ab/abcd1234....mp4
type ShardedVideoKeyGenerator struct {
	Prefix      string
	Extension   string
	ShardLength int
}

func NewShardedVideoKeyGenerator() *ShardedVideoKeyGenerator {
	return &ShardedVideoKeyGenerator{
		Prefix:      "videos",
		Extension:   ".mp4",
		ShardLength: 2,
	}
}

func (g *ShardedVideoKeyGenerator) GenerateKey(assetID uuid.UUID) string {
	idStr := strings.ReplaceAll(assetID.String(), "-", "")

	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen > len(idStr) {
		shardLen = 2
	}

	return fmt.Sprintf("%s/%s/%s%s",
		sanitizePathComponent(g.Prefix), idStr[:shardLen], idStr, g.Extension)
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return strings.Trim(replacer.Replace(component), "/")
}
