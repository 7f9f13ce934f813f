package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
)

const defaultChunkSize = 50

// toolDoc is the Firestore document representation of model.Tool.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search works.
type toolDoc struct {
	StableID     string             `firestore:"StableID"`
	Slug         string             `firestore:"Slug"`
	Name         string             `firestore:"Name"`
	Description  string             `firestore:"Description"`
	WebsiteURL   string             `firestore:"WebsiteURL"`
	Category     string             `firestore:"Category"`
	PricingModel string             `firestore:"PricingModel"`
	ImageURL     string             `firestore:"ImageURL"`
	LaunchDate   time.Time          `firestore:"LaunchDate"`
	Embedding    firestore.Vector32 `firestore:"Embedding,omitempty"`
	Status       string             `firestore:"Status"`
	UpdatedAt    time.Time          `firestore:"UpdatedAt"`
}

func toToolDoc(t *model.Tool, now time.Time) *toolDoc {
	doc := &toolDoc{
		StableID:     t.StableID,
		Slug:         t.Slug,
		Name:         t.Name,
		Description:  t.Description,
		WebsiteURL:   t.WebsiteURL,
		Category:     t.Category,
		PricingModel: t.PricingModel,
		ImageURL:     t.ImageURL,
		LaunchDate:   t.LaunchDate,
		Status:       string(t.Status),
		UpdatedAt:    now,
	}
	if len(t.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(t.Embedding)
	}
	return doc
}

func fromToolDoc(d *toolDoc) *model.Tool {
	t := &model.Tool{
		StableID:     d.StableID,
		Slug:         d.Slug,
		Name:         d.Name,
		Description:  d.Description,
		WebsiteURL:   d.WebsiteURL,
		Category:     d.Category,
		PricingModel: d.PricingModel,
		ImageURL:     d.ImageURL,
		LaunchDate:   d.LaunchDate,
		Status:       model.ToolStatus(d.Status),
	}
	if len(d.Embedding) > 0 {
		t.Embedding = []float32(d.Embedding)
	}
	return t
}

func docToTool(doc *firestore.DocumentSnapshot) (*model.Tool, error) {
	var d toolDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromToolDoc(&d), nil
}

// UpsertTools writes tools in chunks keyed on stable ID. A chunk failure
// abandons the remaining chunks; previously committed chunks stay written.
func (f *Firestore) UpsertTools(ctx context.Context, tools []*model.Tool) (int, error) {
	now := time.Now().UTC()
	committed := 0

	for chunk := 0; committed < len(tools); chunk++ {
		end := committed + f.chunkSize
		if end > len(tools) {
			end = len(tools)
		}

		batch := tools[committed:end]
		if err := f.upsertChunk(ctx, batch, now); err != nil {
			return committed, goerr.Wrap(err, "failed to upsert chunk",
				goerr.T(types.ErrTagPersistence),
				goerr.V("chunk", chunk),
				goerr.V(types.CommittedCountKey, committed))
		}

		// Index updates follow the committed chunk so lexical search never
		// sees a record the store does not hold.
		if err := f.index.Put(batch); err != nil {
			return committed, goerr.Wrap(err, "failed to update lexical index",
				goerr.T(types.ErrTagPersistence),
				goerr.V(types.CommittedCountKey, committed))
		}

		committed = end
	}

	return committed, nil
}

func (f *Firestore) upsertChunk(ctx context.Context, tools []*model.Tool, now time.Time) error {
	bw := f.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(tools))
	for _, tool := range tools {
		job, err := bw.Set(f.collection().Doc(tool.StableID), toToolDoc(tool, now))
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue write", goerr.V("stableID", tool.StableID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write tool", goerr.V("stableID", tools[i].StableID))
		}
	}
	return nil
}

// VectorSearch runs FindNearest over the embedding field with cosine
// distance, converts distances to similarities and applies the threshold.
func (f *Firestore) VectorSearch(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Tool, error) {
	vq := f.collection().FindNearest("Embedding", firestore.Vector32(embedding), limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: "Distance"})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	tools := make([]*model.Tool, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return nil, goerr.Wrap(err, "vector index not deployed, run the migrate command")
			}
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		tool, err := docToTool(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tool from vector search")
		}

		distance, _ := doc.Data()["Distance"].(float64)
		if 1-distance < threshold {
			continue
		}
		tools = append(tools, tool)
	}

	return tools, nil
}

// TextSearch resolves ranked stable IDs from the lexical index, then loads
// the records from Firestore preserving rank order.
func (f *Firestore) TextSearch(ctx context.Context, query string, limit int) ([]*model.Tool, error) {
	ids, err := f.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = f.collection().Doc(id)
	}

	docs, err := f.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load tools for text search", goerr.V("count", len(refs)))
	}

	tools := make([]*model.Tool, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		tool, err := docToTool(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tool from text search")
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (f *Firestore) Latest(ctx context.Context, limit int) ([]*model.Tool, error) {
	iter := f.collection().
		OrderBy("LaunchDate", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	tools := make([]*model.Tool, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate latest tools")
		}

		tool, err := docToTool(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tool")
		}
		tools = append(tools, tool)
	}

	return tools, nil
}
