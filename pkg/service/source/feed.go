package source

import (
	"context"
	"encoding/csv"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
	"github.com/finderslab/toolscout/pkg/utils/safe"
)

// Feed fetches tool records from a CSV feed over HTTP. The first row is
// treated as the header and maps each following row into named fields.
type Feed struct {
	tag        string
	url        string
	httpClient *http.Client
}

type FeedOption func(*Feed)

// WithFeedHTTPClient replaces the HTTP client, mainly for tests.
func WithFeedHTTPClient(c *http.Client) FeedOption {
	return func(f *Feed) {
		f.httpClient = c
	}
}

// NewFeed creates a feed adapter for the given endpoint URL.
func NewFeed(tag, url string, opts ...FeedOption) (*Feed, error) {
	if url == "" {
		return nil, goerr.New("feed URL is required", goerr.V("tag", tag), goerr.T(types.ErrTagConfig))
	}

	f := &Feed{
		tag: tag,
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Feed) Tag() string            { return f.tag }
func (f *Feed) Kind() model.SourceKind { return model.SourceKindFeed }

// Fetch downloads the feed and yields one record per data row. Header
// names are lowercased and cell values trimmed; rows with no non-empty
// cell are skipped.
func (f *Feed) Fetch(ctx context.Context) iter.Seq2[model.RawRecord, error] {
	return func(yield func(model.RawRecord, error) bool) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			yield(model.RawRecord{}, goerr.Wrap(err, "failed to build feed request", goerr.V("url", f.url), goerr.T(types.ErrTagFetch)))
			return
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			yield(model.RawRecord{}, goerr.Wrap(err, "failed to fetch feed", goerr.V("url", f.url), goerr.T(types.ErrTagFetch)))
			return
		}
		defer safe.Close(ctx, resp.Body)

		if resp.StatusCode != http.StatusOK {
			yield(model.RawRecord{}, goerr.New("feed returned non-OK status",
				goerr.V("url", f.url),
				goerr.V("status", resp.StatusCode),
				goerr.T(types.ErrTagFetch),
			))
			return
		}

		reader := csv.NewReader(resp.Body)
		reader.FieldsPerRecord = -1

		header, err := reader.Read()
		if err != nil {
			yield(model.RawRecord{}, goerr.Wrap(err, "failed to read feed header", goerr.V("url", f.url), goerr.T(types.ErrTagParse)))
			return
		}
		for i, name := range header {
			header[i] = strings.ToLower(strings.TrimSpace(name))
		}

		for row := 2; ; row++ {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(model.RawRecord{}, goerr.Wrap(err, "failed to parse feed row",
					goerr.V("url", f.url),
					goerr.V("row", row),
					goerr.T(types.ErrTagParse),
				))
				return
			}

			fields := make(map[string]string, len(header))
			empty := true
			for i, cell := range record {
				if i >= len(header) || header[i] == "" {
					continue
				}
				value := strings.TrimSpace(cell)
				if value != "" {
					empty = false
				}
				fields[header[i]] = value
			}
			if empty {
				continue
			}

			raw := model.RawRecord{
				Kind:      model.SourceKindFeed,
				SourceTag: f.tag,
				Fields:    fields,
			}
			if !yield(raw, nil) {
				return
			}
		}
	}
}
