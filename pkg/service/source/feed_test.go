package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
	"github.com/finderslab/toolscout/pkg/service/source"
)

func collectRecords(t *testing.T, adapter *source.Feed) ([]model.RawRecord, error) {
	t.Helper()
	var records []model.RawRecord
	for rec, err := range adapter.Fetch(context.Background()) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func TestFeedFetch(t *testing.T) {
	t.Run("maps header columns to fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := "Name, Website ,status\n" +
				"Invoice Ninja,https://invoiceninja.example,live\n" +
				" Mailwhale , https://mailwhale.example ,Published\n"
			w.Write([]byte(body))
		}))
		defer srv.Close()

		feed, err := source.NewFeed("producthunt", srv.URL)
		gt.NoError(t, err).Required()
		records, err := collectRecords(t, feed)
		gt.NoError(t, err).Required()
		gt.Number(t, len(records)).Equal(2)

		gt.Value(t, records[0].Kind).Equal(model.SourceKindFeed)
		gt.Value(t, records[0].SourceTag).Equal("producthunt")
		gt.Value(t, records[0].Field("name")).Equal("Invoice Ninja")
		gt.Value(t, records[0].Field("website")).Equal("https://invoiceninja.example")

		// Cells and headers are trimmed
		gt.Value(t, records[1].Field("name")).Equal("Mailwhale")
		gt.Value(t, records[1].Field("website")).Equal("https://mailwhale.example")
	})

	t.Run("skips fully empty rows", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("name,status\n,,\nPapertrail,live\n   ,\n"))
		}))
		defer srv.Close()

		feed, err := source.NewFeed("feed", srv.URL)
		gt.NoError(t, err).Required()
		records, err := collectRecords(t, feed)
		gt.NoError(t, err).Required()
		gt.Number(t, len(records)).Equal(1)
		gt.Value(t, records[0].Field("name")).Equal("Papertrail")
	})

	t.Run("non-OK status yields fetch error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		feed, err := source.NewFeed("feed", srv.URL)
		gt.NoError(t, err).Required()
		_, err = collectRecords(t, feed)
		gt.Error(t, err)
		gt.Bool(t, types.IsFetchErr(err)).True()
	})

	t.Run("malformed CSV yields parse error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("name,status\n\"unterminated,live\n"))
		}))
		defer srv.Close()

		feed, err := source.NewFeed("feed", srv.URL)
		gt.NoError(t, err).Required()
		records, err := collectRecords(t, feed)
		gt.Error(t, err)
		gt.Bool(t, types.IsParseErr(err)).True()
		gt.Number(t, len(records)).Equal(0)
	})

	t.Run("requires URL", func(t *testing.T) {
		_, err := source.NewFeed("feed", "")
		gt.Error(t, err)
	})
}
