package lexical

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
)

// Index is the in-process full-text index over catalog entries. It holds
// only searchable text keyed by stable ID; the record of truth stays in the
// backing store. Bleve's query string syntax gives us quoted-phrase and
// '-' exclusion operators without a parser of our own.
type Index struct {
	idx bleve.Index
}

// New creates an in-memory index. The index is rebuilt from the store on
// process start, so nothing is persisted here.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bleve index")
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	toolMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"name", "description", "category", "pricing"} {
		toolMapping.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", toolMapping)
	return indexMapping
}

// Put indexes tools in one batch, keyed by stable ID. Re-indexing an
// existing ID replaces the previous document.
func (x *Index) Put(tools []*model.Tool) error {
	batch := x.idx.NewBatch()

	for _, tool := range tools {
		doc := map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"category":    tool.Category,
			"pricing":     tool.PricingModel,
		}
		if err := batch.Index(tool.StableID, doc); err != nil {
			return goerr.Wrap(err, "failed to index tool", goerr.V("stableID", tool.StableID))
		}
	}

	if err := x.idx.Batch(batch); err != nil {
		return goerr.Wrap(err, "failed to apply index batch", goerr.V("count", len(tools)))
	}
	return nil
}

// Search returns stable IDs ranked by relevance for a query string.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)

	result, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search index", goerr.V("query", query))
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (x *Index) Close() error {
	return x.idx.Close()
}
