package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
	"github.com/finderslab/toolscout/pkg/utils/errutil"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

// Ingest runs one complete ingestion pass: fetch every configured
// source, normalize, embed, and upsert into the catalog store. It
// always returns a summary; failures are reported through it rather
// than raised, and partial progress (records committed before a store
// failure) is reflected in CommittedCount.
func (uc *UseCases) Ingest(ctx context.Context) *model.IngestSummary {
	summary := &model.IngestSummary{
		RunID:     model.NewIngestRunID(),
		StartedAt: time.Now(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	logger := logging.From(ctx).With(slog.String("runID", string(summary.RunID)))
	ctx = logging.With(ctx, logger)

	if len(uc.sources) == 0 {
		summary.Err = goerr.New("no sources configured", goerr.T(types.ErrTagConfig))
		summary.Message = "ingestion requires at least one configured source"
		errutil.Handle(ctx, summary.Err, "ingestion precondition failed")
		return summary
	}

	ctx, cancel := context.WithTimeout(ctx, uc.ingestBudget)
	defer cancel()

	logger.Info("ingestion started", slog.Int("sources", len(uc.sources)))

	tools, err := uc.collect(ctx, summary)
	if err != nil {
		summary.Err = err
		summary.Message = "source collection failed"
		errutil.Handle(ctx, err, "ingestion aborted during collection")
		return summary
	}
	summary.ProcessedCount = len(tools)

	if len(tools) == 0 {
		summary.Success = true
		summary.Message = "no live records found"
		logger.Info("ingestion finished with no records")
		return summary
	}

	// Embedding failures degrade: affected tools are stored without a
	// vector and stay reachable through lexical search.
	if uc.embedder != nil {
		results := uc.embedder.EmbedTools(ctx, tools)
		for _, r := range results {
			if r.Err != nil {
				errutil.Handle(ctx, r.Err, "record embedding failed, storing without vector")
				continue
			}
			r.Tool.Embedding = r.Vector
			summary.EmbeddedCount++
		}
	}

	committed, err := uc.repo.UpsertTools(ctx, tools)
	summary.CommittedCount = committed
	if err != nil {
		summary.Err = err
		summary.Message = "catalog store write failed"
		if n, ok := committedFrom(err); ok {
			summary.CommittedCount = n
		}
		errutil.Handle(ctx, err, "ingestion aborted during persistence")
		return summary
	}

	summary.Success = true
	summary.Message = "ingestion completed"
	logger.Info("ingestion completed",
		slog.Int("processed", summary.ProcessedCount),
		slog.Int("embedded", summary.EmbeddedCount),
		slog.Int("committed", summary.CommittedCount),
	)
	return summary
}

// collect fetches and normalizes all sources. Any fetch or parse error
// aborts the whole run: a half-read feed must never shrink the catalog
// view of a source. Records are deduplicated on stable ID within the
// run, last occurrence wins, so one run is itself idempotent.
func (uc *UseCases) collect(ctx context.Context, summary *model.IngestSummary) ([]*model.Tool, error) {
	logger := logging.From(ctx)

	var tools []*model.Tool
	seen := map[string]int{}

	for _, src := range uc.sources {
		dropped := 0
		fetched := 0

		for rec, err := range src.Fetch(ctx) {
			if err != nil {
				return nil, goerr.Wrap(err, "source fetch failed",
					goerr.V("source", src.Tag()),
					goerr.V("kind", src.Kind()),
				)
			}
			fetched++

			tool, ok := model.Normalize(rec, summary.StartedAt)
			if !ok {
				dropped++
				continue
			}
			if i, ok := seen[tool.StableID]; ok {
				tools[i] = tool
				continue
			}
			seen[tool.StableID] = len(tools)
			tools = append(tools, tool)
		}

		summary.SourceCount++
		logger.Info("source collected",
			slog.String("source", src.Tag()),
			slog.Int("fetched", fetched),
			slog.Int("dropped", dropped),
		)
	}

	return tools, nil
}

// committedFrom extracts the partial-progress count attached to a
// persistence error.
func committedFrom(err error) (int, bool) {
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		return 0, false
	}
	if v, ok := ge.Values()[types.CommittedCountKey]; ok {
		if n, ok := v.(int); ok {
			return n, true
		}
	}
	return 0, false
}
