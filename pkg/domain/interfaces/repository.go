package interfaces

import (
	"context"

	"github.com/finderslab/toolscout/pkg/domain/model"
)

// Repository is the catalog store boundary. The concrete engine is an
// external collaborator; the core depends only on these four operations.
type Repository interface {
	// UpsertTools writes tools keyed on StableID, full overwrite per record.
	// Writes are chunked; on a chunk failure the remaining chunks are
	// abandoned and the returned count reflects rows already committed. The
	// error is tagged types.ErrTagPersistence and carries committed_count.
	UpsertTools(ctx context.Context, tools []*model.Tool) (int, error)

	// VectorSearch returns tools ordered by descending cosine similarity to
	// the query embedding, filtered by the similarity threshold and truncated
	// to limit.
	VectorSearch(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Tool, error)

	// TextSearch runs ranked lexical matching. Quoted phrases and '-'
	// exclusion operators in the query are honored.
	TextSearch(ctx context.Context, query string, limit int) ([]*model.Tool, error)

	// Latest returns tools ordered by launch date descending.
	Latest(ctx context.Context, limit int) ([]*model.Tool, error)

	Close() error
}
