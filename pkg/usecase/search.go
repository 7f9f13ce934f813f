package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/utils/errutil"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

const (
	// DefaultSearchLimit caps result counts when the caller passes no limit.
	DefaultSearchLimit = 20

	// similarityThreshold is deliberately permissive: ranking does the real
	// work, the threshold only drops near-orthogonal noise.
	similarityThreshold = 0.01
)

// Search finds catalog tools matching the query. It tries the vector
// path first and falls back to lexical matching when that path yields
// nothing or fails. Search never returns an error: every internal
// failure is logged and treated as an empty tier, so the worst outcome
// for a caller is an empty result.
func (uc *UseCases) Search(ctx context.Context, query string, limit int) []*model.Tool {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if tools := uc.vectorSearch(ctx, query, limit); len(tools) > 0 {
		return tools
	}

	tools, err := uc.repo.TextSearch(ctx, query, limit)
	if err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "lexical search failed", goerr.V("query", query)), "search degraded to empty result")
		return nil
	}
	return tools
}

// vectorSearch runs the semantic tier under a short timeout. Any
// failure returns nil so the caller falls through to lexical search.
func (uc *UseCases) vectorSearch(ctx context.Context, query string, limit int) []*model.Tool {
	if uc.embedder == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, uc.vectorTimeout)
	defer cancel()

	vec, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		errutil.Handle(ctx, err, "query embedding failed, falling back to lexical search")
		return nil
	}

	tools, err := uc.repo.VectorSearch(ctx, vec, similarityThreshold, limit)
	if err != nil {
		errutil.Handle(ctx, err, "vector search failed, falling back to lexical search")
		return nil
	}

	logging.From(ctx).Debug("vector search tier",
		slog.String("query", query),
		slog.Int("hits", len(tools)),
	)
	return tools
}
