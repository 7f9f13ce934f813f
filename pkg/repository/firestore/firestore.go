package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/finderslab/toolscout/pkg/domain/interfaces"
	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/repository/lexical"
)

const toolCollection = "tools"

// Firestore is the production catalog store. Records and embeddings live in
// Firestore; lexical search runs against an in-process bleve index that is
// rebuilt from the collection on open and updated on every upsert chunk.
type Firestore struct {
	client    *firestore.Client
	index     *lexical.Index
	chunkSize int
	prefix    string
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces the tool collection, used by integration
// tests to isolate runs.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.prefix = prefix
	}
}

// WithChunkSize overrides the upsert chunk size.
func WithChunkSize(n int) Option {
	return func(f *Firestore) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	index, err := lexical.New()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create lexical index")
	}

	f := &Firestore{
		client:    client,
		index:     index,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.rebuildIndex(ctx); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *Firestore) collection() *firestore.CollectionRef {
	return f.client.Collection(f.prefix + toolCollection)
}

// rebuildIndex loads every tool into the lexical index so text search is
// available immediately after open.
func (f *Firestore) rebuildIndex(ctx context.Context) error {
	iter := f.collection().Documents(ctx)
	defer iter.Stop()

	var tools []*model.Tool
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate tools for index rebuild")
		}

		tool, err := docToTool(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal tool for index rebuild")
		}
		tools = append(tools, tool)
	}

	if len(tools) == 0 {
		return nil
	}
	if err := f.index.Put(tools); err != nil {
		return goerr.Wrap(err, "failed to rebuild lexical index", goerr.V("count", len(tools)))
	}
	return nil
}

func (f *Firestore) Close() error {
	if err := f.index.Close(); err != nil {
		return err
	}
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
