package model

import (
	"time"

	"github.com/google/uuid"
)

// IngestRunID identifies one ingestion run
type IngestRunID string

// NewIngestRunID generates a new UUID v4 IngestRunID
func NewIngestRunID() IngestRunID {
	return IngestRunID(uuid.New().String())
}

// IngestSummary is the structured result of one ingestion run. A run is a
// complete, self-contained operation: fetch, normalize, embed, upsert.
type IngestSummary struct {
	RunID          IngestRunID
	Success        bool
	SourceCount    int // sources fetched without error
	ProcessedCount int // tools that passed normalization
	EmbeddedCount  int // tools with a populated embedding
	CommittedCount int // rows confirmed written by the store
	StartedAt      time.Time
	Duration       time.Duration
	Message        string
	Err            error
}
