package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/finderslab/toolscout/pkg/domain/interfaces"
	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/repository/firestore"
	"github.com/finderslab/toolscout/pkg/repository/memory"
)

func TestMemoryRepository(t *testing.T) {
	runToolRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreRepository(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	runToolRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		prefix := fmt.Sprintf("test-%d-", time.Now().UnixNano())
		repo, err := firestore.New(context.Background(), projectID, databaseID,
			firestore.WithCollectionPrefix(prefix))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			if err := repo.Close(); err != nil {
				t.Errorf("failed to close repository: %v", err)
			}
		})
		return repo
	})
}

func toolFixture(stableID, name string, launch time.Time) *model.Tool {
	return &model.Tool{
		StableID:     stableID,
		Slug:         model.Slugify(name),
		Name:         name,
		Description:  name + " description",
		Category:     "Productivity",
		PricingModel: "Free",
		LaunchDate:   launch,
		Status:       model.StatusLive,
	}
}

func runToolRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("upsert is idempotent on stable ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		tools := []*model.Tool{
			toolFixture("alpha", "Alpha", launch),
			toolFixture("beta", "Beta", launch),
		}

		n, err := repo.UpsertTools(ctx, tools)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(2)

		// Re-ingesting the same records never creates duplicates
		n, err = repo.UpsertTools(ctx, tools)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(2)

		latest, err := repo.Latest(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, len(latest)).Equal(2)
	})

	t.Run("upsert replaces all fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		first := toolFixture("gamma", "Gamma", launch)
		first.Description = "old description"
		_, err := repo.UpsertTools(ctx, []*model.Tool{first})
		gt.NoError(t, err).Required()

		second := toolFixture("gamma", "Gamma", launch)
		second.Description = "new description"
		second.PricingModel = "Paid"
		_, err = repo.UpsertTools(ctx, []*model.Tool{second})
		gt.NoError(t, err).Required()

		latest, err := repo.Latest(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, len(latest)).Equal(1)
		gt.Value(t, latest[0].Description).Equal("new description")
		gt.Value(t, latest[0].PricingModel).Equal("Paid")
	})

	t.Run("latest orders by launch date descending", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		tools := []*model.Tool{
			toolFixture("old", "Old Tool", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)),
			toolFixture("new", "New Tool", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
			toolFixture("mid", "Mid Tool", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		}
		_, err := repo.UpsertTools(ctx, tools)
		gt.NoError(t, err).Required()

		latest, err := repo.Latest(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Number(t, len(latest)).Equal(2)
		gt.Value(t, latest[0].StableID).Equal("new")
		gt.Value(t, latest[1].StableID).Equal("mid")
	})

	t.Run("text search honors phrase and exclusion operators", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		invoicing := toolFixture("invoice-ninja", "Invoice Ninja", launch)
		invoicing.Description = "Automate your invoices"
		archive := toolFixture("papertrail", "Papertrail", launch)
		archive.Description = "Invoice archive and audit"

		_, err := repo.UpsertTools(ctx, []*model.Tool{invoicing, archive})
		gt.NoError(t, err).Required()

		results, err := repo.TextSearch(ctx, `"automate your invoices"`, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, len(results)).Equal(1)
		gt.Value(t, results[0].StableID).Equal("invoice-ninja")

		results, err = repo.TextSearch(ctx, "invoice -archive", 10)
		gt.NoError(t, err).Required()
		for _, tool := range results {
			gt.Value(t, tool.StableID).NotEqual("papertrail")
		}
	})
}

func TestMemoryVectorSearch(t *testing.T) {
	// Vector search runs against the memory backend only: the Firestore
	// variant needs a deployed vector index, covered by the integration
	// environment instead.
	repo := memory.New()
	ctx := context.Background()
	launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	near := toolFixture("near", "Near Tool", launch)
	near.Embedding = []float32{1, 0, 0}
	far := toolFixture("far", "Far Tool", launch)
	far.Embedding = []float32{0, 1, 0}
	missing := toolFixture("missing", "No Vector Tool", launch)

	_, err := repo.UpsertTools(ctx, []*model.Tool{near, far, missing})
	gt.NoError(t, err).Required()

	t.Run("orders by descending similarity", func(t *testing.T) {
		results, err := repo.VectorSearch(ctx, []float32{0.9, 0.1, 0}, 0.01, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, len(results)).Equal(2)
		gt.Value(t, results[0].StableID).Equal("near")
		gt.Value(t, results[1].StableID).Equal("far")
	})

	t.Run("threshold filters weak matches", func(t *testing.T) {
		results, err := repo.VectorSearch(ctx, []float32{1, 0, 0}, 0.99, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, len(results)).Equal(1)
		gt.Value(t, results[0].StableID).Equal("near")
	})

	t.Run("records without embedding are never candidates", func(t *testing.T) {
		results, err := repo.VectorSearch(ctx, []float32{0, 0, 1}, 0, 10)
		gt.NoError(t, err).Required()
		for _, tool := range results {
			gt.Value(t, tool.StableID).NotEqual("missing")
		}
	})
}

func TestMemoryChunkedUpsertPartialProgress(t *testing.T) {
	ctx := context.Background()
	launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := memory.New(memory.WithUpsertFault(func(chunk int) error {
		if chunk == 2 {
			return fmt.Errorf("store unavailable")
		}
		return nil
	}))

	tools := make([]*model.Tool, 120)
	for i := range tools {
		tools[i] = toolFixture(fmt.Sprintf("tool-%03d", i), fmt.Sprintf("Tool %03d", i), launch)
	}

	n, err := repo.UpsertTools(ctx, tools)
	gt.Error(t, err)
	gt.Number(t, n).Equal(100)
	gt.Number(t, repo.Count()).Equal(100)
}
