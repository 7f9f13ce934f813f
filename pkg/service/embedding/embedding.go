package embedding

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

// DefaultBatchSize is how many texts go into one embedding API call.
const DefaultBatchSize = 10

// retryConcurrency bounds per-record calls when a failed batch is
// retried record by record.
const retryConcurrency = 4

// Client is the embedding capability this service needs from an LLM
// client. gollem.LLMClient satisfies it.
type Client interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

// Service generates embedding vectors for catalog tools and search
// queries. A batch failure degrades to per-record calls so one bad
// record never takes down its whole batch.
type Service struct {
	client    Client
	batchSize int
}

type Option func(*Service)

func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func New(client Client, opts ...Option) *Service {
	s := &Service{
		client:    client,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result pairs a tool with its embedding outcome. Exactly one of Vector
// and Err is set.
type Result struct {
	Tool   *model.Tool
	Vector []float32
	Err    error
}

// EmbedTools generates embeddings for each tool's canonical text. The
// returned slice preserves input order and always has one entry per
// tool; failed entries carry Err instead of Vector. Batches run one at
// a time: the next API call starts only after the previous batch
// resolves, so in-flight load on the provider is bounded by the batch
// size.
func (s *Service) EmbedTools(ctx context.Context, tools []*model.Tool) []Result {
	results := make([]Result, len(tools))
	for i, tool := range tools {
		results[i].Tool = tool
	}

	for start := 0; start < len(tools); start += s.batchSize {
		end := min(start+s.batchSize, len(tools))
		s.embedBatch(ctx, tools[start:end], results[start:end], start)
	}

	return results
}

func (s *Service) embedBatch(ctx context.Context, batch []*model.Tool, results []Result, offset int) {
	texts := make([]string, len(batch))
	for i, tool := range batch {
		texts[i] = tool.EmbeddingText()
	}

	vectors, err := s.client.GenerateEmbedding(ctx, model.EmbeddingDimension, texts)
	if err == nil && len(vectors) != len(texts) {
		err = goerr.New("embedding count mismatch",
			goerr.V("want", len(texts)),
			goerr.V("got", len(vectors)),
			goerr.T(types.ErrTagEmbedding),
		)
	}
	if err != nil {
		logging.From(ctx).Warn("embedding batch failed, retrying records individually",
			slog.Int("batch_start", offset),
			slog.Int("batch_size", len(batch)),
			slog.Any("error", err),
		)
		s.embedIndividually(ctx, results, texts)
		return
	}

	for i, vec := range vectors {
		results[i].Vector = toFloat32(vec)
	}
}

// embedIndividually retries each record of a failed batch on its own so
// only genuinely bad records are lost. Retries within the batch run
// concurrently; each goroutine owns one results entry, so no locking is
// needed.
func (s *Service) embedIndividually(ctx context.Context, results []Result, texts []string) {
	eg := errgroup.Group{}
	eg.SetLimit(retryConcurrency)

	for i, text := range texts {
		eg.Go(func() error {
			vectors, err := s.client.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
			if err == nil && len(vectors) == 0 {
				err = goerr.New("no embedding returned", goerr.T(types.ErrTagEmbedding))
			}
			if err != nil {
				results[i].Err = goerr.Wrap(err, "failed to embed record",
					goerr.V("stableID", results[i].Tool.StableID),
					goerr.T(types.ErrTagEmbedding),
				)
				return nil
			}
			results[i].Vector = toFloat32(vectors[0])
			return nil
		})
	}
	eg.Wait() //nolint:errcheck // goroutines never return errors, failures degrade per record
}

// EmbedQuery generates the embedding for a search query.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.client.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.T(types.ErrTagEmbedding))
	}
	if len(vectors) == 0 {
		return nil, goerr.New("no embedding returned", goerr.T(types.ErrTagEmbedding))
	}
	return toFloat32(vectors[0]), nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
