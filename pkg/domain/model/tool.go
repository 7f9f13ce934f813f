package model

import (
	"strings"
	"time"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Both supported embedding backends are configured to emit 768 dimensions,
// and every persisted vector must match it.
const EmbeddingDimension = 768

// ToolStatus represents the publication state of a catalog entry
type ToolStatus string

const (
	StatusLive    ToolStatus = "Live"
	StatusNotLive ToolStatus = "NotLive"
)

// Tool is the canonical catalog entity produced by normalization and
// persisted by the catalog store. StableID is the upsert conflict key and is
// unique across all sources.
type Tool struct {
	StableID     string
	Slug         string
	Name         string
	Description  string
	WebsiteURL   string
	Category     string
	PricingModel string
	ImageURL     string
	LaunchDate   time.Time
	Embedding    []float32 // nil when embedding generation did not succeed
	Status       ToolStatus
}

// EmbeddingText builds the descriptive string fed to the embedding service.
// The composition is deterministic over name, description, category and
// pricing model so that re-embedding an unchanged tool yields the same input.
func (t *Tool) EmbeddingText() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{t.Name, t.Description, t.Category, t.PricingModel} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

// Clone returns a deep copy of the tool
func (t *Tool) Clone() *Tool {
	copied := *t
	if t.Embedding != nil {
		copied.Embedding = make([]float32, len(t.Embedding))
		copy(copied.Embedding, t.Embedding)
	}
	return &copied
}
