package usecase

import (
	"time"

	"github.com/finderslab/toolscout/pkg/domain/interfaces"
	"github.com/finderslab/toolscout/pkg/service/embedding"
)

type UseCases struct {
	repo     interfaces.Repository
	embedder *embedding.Service
	sources  []interfaces.SourceAdapter

	ingestBudget  time.Duration
	vectorTimeout time.Duration
}

type Option func(*UseCases)

// WithSources sets the source adapters an ingestion run fetches from.
func WithSources(sources ...interfaces.SourceAdapter) Option {
	return func(uc *UseCases) {
		uc.sources = sources
	}
}

// WithIngestBudget overrides the wall-clock budget of one ingestion run.
func WithIngestBudget(d time.Duration) Option {
	return func(uc *UseCases) {
		if d > 0 {
			uc.ingestBudget = d
		}
	}
}

// WithVectorTimeout overrides how long a search waits for the vector
// path before falling back to lexical.
func WithVectorTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		if d > 0 {
			uc.vectorTimeout = d
		}
	}
}

func New(repo interfaces.Repository, embedder *embedding.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:          repo,
		embedder:      embedder,
		ingestBudget:  5 * time.Minute,
		vectorTimeout: 3 * time.Second,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
