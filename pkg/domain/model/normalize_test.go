package model_test

import (
	"testing"
	"time"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Notion", "notion"},
		{"spaces to hyphens", "My Cool Tool", "my-cool-tool"},
		{"collapses whitespace", "A   B\tC", "a-b-c"},
		{"strips symbols", "Fancy! Tool (v2)", "fancy-tool-v2"},
		{"keeps underscores", "snake_case_name", "snake_case_name"},
		{"collapses hyphens", "a --- b", "a-b"},
		{"trims edge hyphens", " -edge- ", "edge"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, model.Slugify(tc.input)).Equal(tc.want)
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("maps canonical fields", func(t *testing.T) {
		rec := model.RawRecord{
			Kind:      model.SourceKindFeed,
			SourceTag: "weekly-feed",
			Fields: map[string]string{
				"name":        "Invoice Ninja",
				"description": "Automate your invoices",
				"website":     "https://example.com",
				"category":    "Finance",
				"pricing":     "Freemium",
				"image":       "https://example.com/logo.png",
				"status":      "Live",
				"launch_date": "2024-03-15",
			},
		}

		tool, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).True()
		gt.Value(t, tool.Name).Equal("Invoice Ninja")
		gt.Value(t, tool.Slug).Equal("invoice-ninja")
		gt.Value(t, tool.StableID).Equal("invoice-ninja-weekly-feed")
		gt.Value(t, tool.Description).Equal("Automate your invoices")
		gt.Value(t, tool.Category).Equal("Finance")
		gt.Value(t, tool.PricingModel).Equal("Freemium")
		gt.Value(t, tool.Status).Equal(model.StatusLive)
		gt.Value(t, tool.LaunchDate).Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		rec := model.RawRecord{
			Kind:      model.SourceKindNotion,
			SourceTag: "notion-db",
			Fields:    map[string]string{"name": "Some  Tool!", "status": "Published"},
		}

		a, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).True()
		b, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).True()

		gt.Value(t, a.Slug).Equal(b.Slug)
		gt.Value(t, a.StableID).Equal(b.StableID)
	})

	t.Run("prefers source-native ID", func(t *testing.T) {
		rec := model.RawRecord{
			Kind:      model.SourceKindNotion,
			SourceTag: "notion-db",
			Fields: map[string]string{
				"id":     "page-abc123",
				"name":   "Named Tool",
				"status": "live",
			},
		}

		tool, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).True()
		gt.Value(t, tool.StableID).Equal("page-abc123")
	})

	t.Run("drops record without name", func(t *testing.T) {
		rec := model.RawRecord{
			Kind:      model.SourceKindFeed,
			SourceTag: "feed",
			Fields:    map[string]string{"description": "nameless", "status": "Live"},
		}

		_, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).False()
	})

	t.Run("drops non-live status", func(t *testing.T) {
		for _, status := range []string{"Draft", "archived", ""} {
			rec := model.RawRecord{
				Kind:      model.SourceKindFeed,
				SourceTag: "feed",
				Fields:    map[string]string{"name": "Hidden", "status": status},
			}

			_, ok := model.Normalize(rec, now)
			gt.Bool(t, ok).False()
		}
	})

	t.Run("accepts live statuses case-insensitively", func(t *testing.T) {
		for _, status := range []string{"Live", "LIVE", "published", "Published"} {
			rec := model.RawRecord{
				Kind:      model.SourceKindFeed,
				SourceTag: "feed",
				Fields:    map[string]string{"name": "Visible", "status": status},
			}

			_, ok := model.Normalize(rec, now)
			gt.Bool(t, ok).True()
		}
	})

	t.Run("defaults launch date to run time", func(t *testing.T) {
		rec := model.RawRecord{
			Kind:      model.SourceKindFeed,
			SourceTag: "feed",
			Fields:    map[string]string{"name": "No Date", "status": "Live", "launch_date": "not-a-date"},
		}

		tool, ok := model.Normalize(rec, now)
		gt.Bool(t, ok).True()
		gt.Value(t, tool.LaunchDate).Equal(now)
	})
}

func TestEmbeddingText(t *testing.T) {
	tool := &model.Tool{
		Name:         "Invoice Ninja",
		Description:  "Automate your invoices",
		Category:     "Finance",
		PricingModel: "Freemium",
	}

	text := tool.EmbeddingText()
	gt.Value(t, text).Equal("Invoice Ninja. Automate your invoices. Finance. Freemium")

	// Empty fields are omitted, not rendered as empty separators
	tool.Category = ""
	gt.Value(t, tool.EmbeddingText()).Equal("Invoice Ninja. Automate your invoices. Freemium")
}
