package source_test

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/gt"

	"github.com/finderslab/toolscout/pkg/service/source"
)

func TestExtractFields(t *testing.T) {
	t.Run("flattens property types to strings", func(t *testing.T) {
		launch := notionapi.Date(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		props := notionapi.Properties{
			"Name": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: "Invoice "}, {PlainText: "Ninja"}},
			},
			"Description": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: "Invoicing for freelancers"}},
			},
			"Category": &notionapi.SelectProperty{
				Select: notionapi.Option{Name: "Finance"},
			},
			"Status": &notionapi.StatusProperty{
				Status: notionapi.Status{Name: "Live"},
			},
			"Website": &notionapi.URLProperty{
				URL: "https://invoiceninja.example",
			},
			"Launch Date": &notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &launch},
			},
			"Logo": &notionapi.FilesProperty{
				Files: []notionapi.File{
					{External: &notionapi.FileObject{URL: "https://cdn.example/logo.png"}},
				},
			},
		}

		fields := source.ExtractFields(props)

		gt.Value(t, fields["name"]).Equal("Invoice Ninja")
		gt.Value(t, fields["description"]).Equal("Invoicing for freelancers")
		gt.Value(t, fields["category"]).Equal("Finance")
		gt.Value(t, fields["status"]).Equal("Live")
		gt.Value(t, fields["website"]).Equal("https://invoiceninja.example")
		gt.Value(t, fields["launch_date"]).Equal("2024-03-15T00:00:00Z")
		gt.Value(t, fields["logo"]).Equal("https://cdn.example/logo.png")
	})

	t.Run("prefers external file URL over hosted", func(t *testing.T) {
		props := notionapi.Properties{
			"Image": &notionapi.FilesProperty{
				Files: []notionapi.File{
					{File: &notionapi.FileObject{URL: "https://notion.example/hosted.png"}},
				},
			},
		}

		fields := source.ExtractFields(props)
		gt.Value(t, fields["image"]).Equal("https://notion.example/hosted.png")
	})

	t.Run("skips empty and unsupported properties", func(t *testing.T) {
		props := notionapi.Properties{
			"Name":   &notionapi.TitleProperty{},
			"People": &notionapi.PeopleProperty{},
			"Done":   &notionapi.CheckboxProperty{Checkbox: true},
		}

		fields := source.ExtractFields(props)
		gt.Number(t, len(fields)).Equal(1)
		gt.Value(t, fields["done"]).Equal("true")
	})
}

func TestNotionStatusFilter(t *testing.T) {
	t.Run("defaults to Status equals Live", func(t *testing.T) {
		adapter, err := source.NewNotion("directory", "secret_token", "db-1")
		gt.NoError(t, err).Required()

		filter := adapter.QueryFilterForTest()
		gt.Value(t, filter.Property).Equal("Status")
		gt.Value(t, filter.Status).NotNil()
		gt.Value(t, filter.Status.Equals).Equal("Live")
		gt.Value(t, filter.Select).Nil()
	})

	t.Run("overrides property and value", func(t *testing.T) {
		adapter, err := source.NewNotion("directory", "secret_token", "db-1",
			source.WithStatusFilter("Stage", "Published"),
		)
		gt.NoError(t, err).Required()

		filter := adapter.QueryFilterForTest()
		gt.Value(t, filter.Property).Equal("Stage")
		gt.Value(t, filter.Status.Equals).Equal("Published")
	})

	t.Run("targets select columns when configured", func(t *testing.T) {
		adapter, err := source.NewNotion("directory", "secret_token", "db-1",
			source.WithSelectStatus(),
		)
		gt.NoError(t, err).Required()

		filter := adapter.QueryFilterForTest()
		gt.Value(t, filter.Select).NotNil()
		gt.Value(t, filter.Select.Equals).Equal("Live")
		gt.Value(t, filter.Status).Nil()
	})
}
