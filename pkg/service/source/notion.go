package source

import (
	"context"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
)

// Default liveness filter applied to database queries. Entries can
// override these per source when their database uses different names.
const (
	DefaultStatusProperty = "Status"
	DefaultStatusValue    = "Live"
)

// Notion fetches tool records from a Notion database. Each page becomes
// one record, with its properties flattened into string fields.
type Notion struct {
	tag            string
	api            *notionapi.Client
	databaseID     string
	statusProperty string
	statusValue    string
	statusIsSelect bool
}

type NotionOption func(*Notion)

// WithStatusFilter overrides the property name and value of the
// server-side liveness filter.
func WithStatusFilter(property, value string) NotionOption {
	return func(n *Notion) {
		if property != "" {
			n.statusProperty = property
		}
		if value != "" {
			n.statusValue = value
		}
	}
}

// WithSelectStatus targets the liveness filter at a select property
// instead of a status property. Notion rejects a filter whose condition
// type does not match the column type, so databases that model status
// as a select column need this.
func WithSelectStatus() NotionOption {
	return func(n *Notion) {
		n.statusIsSelect = true
	}
}

// NewNotion creates a Notion adapter for the given database.
func NewNotion(tag, token, databaseID string, opts ...NotionOption) (*Notion, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required", goerr.V("tag", tag), goerr.T(types.ErrTagConfig))
	}
	if databaseID == "" {
		return nil, goerr.New("Notion database ID is required", goerr.V("tag", tag), goerr.T(types.ErrTagConfig))
	}

	n := &Notion{
		tag:            tag,
		api:            notionapi.NewClient(notionapi.Token(token), notionapi.WithRetry(3)),
		databaseID:     databaseID,
		statusProperty: DefaultStatusProperty,
		statusValue:    DefaultStatusValue,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Notion) Tag() string            { return n.tag }
func (n *Notion) Kind() model.SourceKind { return model.SourceKindNotion }

// Fetch queries the database with a server-side liveness filter and
// yields one record per page. The normalizer still checks status, so a
// page that slips through a misconfigured filter is dropped downstream.
func (n *Notion) Fetch(ctx context.Context) iter.Seq2[model.RawRecord, error] {
	return func(yield func(model.RawRecord, error) bool) {
		var cursor notionapi.Cursor

		for {
			resp, err := n.api.Database.Query(ctx, notionapi.DatabaseID(n.databaseID), &notionapi.DatabaseQueryRequest{
				Filter:      n.statusFilter(),
				StartCursor: cursor,
				PageSize:    100,
			})
			if err != nil {
				yield(model.RawRecord{}, goerr.Wrap(err, "failed to query Notion database",
					goerr.V("databaseID", n.databaseID),
					goerr.T(types.ErrTagFetch),
				))
				return
			}

			for _, page := range resp.Results {
				fields := ExtractFields(page.Properties)
				fields["id"] = page.ID.String()

				raw := model.RawRecord{
					Kind:      model.SourceKindNotion,
					SourceTag: n.tag,
					Fields:    fields,
				}
				if !yield(raw, nil) {
					return
				}
			}

			if !resp.HasMore {
				break
			}
			cursor = resp.NextCursor
		}
	}
}

// statusFilter builds the property filter that keeps the query to
// pages whose status marks them as live.
func (n *Notion) statusFilter() *notionapi.PropertyFilter {
	filter := &notionapi.PropertyFilter{Property: n.statusProperty}
	if n.statusIsSelect {
		filter.Select = &notionapi.SelectFilterCondition{Equals: n.statusValue}
	} else {
		filter.Status = &notionapi.StatusFilterCondition{Equals: n.statusValue}
	}
	return filter
}

// ExtractFields flattens page properties into string fields. Property
// names are lowercased with spaces replaced by underscores so they line
// up with the field names the normalizer recognizes.
func ExtractFields(props notionapi.Properties) map[string]string {
	fields := make(map[string]string, len(props))
	for name, prop := range props {
		value := propertyText(prop)
		if value == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		fields[key] = value
	}
	return fields
}

func propertyText(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return richTextPlain(p.Title)
	case notionapi.TitleProperty:
		return richTextPlain(p.Title)
	case *notionapi.RichTextProperty:
		return richTextPlain(p.RichText)
	case notionapi.RichTextProperty:
		return richTextPlain(p.RichText)
	case *notionapi.SelectProperty:
		return p.Select.Name
	case notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.StatusProperty:
		return p.Status.Name
	case notionapi.StatusProperty:
		return p.Status.Name
	case *notionapi.MultiSelectProperty:
		return optionNames(p.MultiSelect)
	case notionapi.MultiSelectProperty:
		return optionNames(p.MultiSelect)
	case *notionapi.URLProperty:
		return p.URL
	case notionapi.URLProperty:
		return p.URL
	case *notionapi.NumberProperty:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case notionapi.NumberProperty:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case *notionapi.CheckboxProperty:
		return strconv.FormatBool(p.Checkbox)
	case notionapi.CheckboxProperty:
		return strconv.FormatBool(p.Checkbox)
	case *notionapi.DateProperty:
		return dateText(p.Date)
	case notionapi.DateProperty:
		return dateText(p.Date)
	case *notionapi.FilesProperty:
		return fileURL(p.Files)
	case notionapi.FilesProperty:
		return fileURL(p.Files)
	default:
		return ""
	}
}

func richTextPlain(items []notionapi.RichText) string {
	var parts []string
	for _, item := range items {
		if item.PlainText != "" {
			parts = append(parts, item.PlainText)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func optionNames(opts []notionapi.Option) string {
	names := make([]string, 0, len(opts))
	for _, opt := range opts {
		if opt.Name != "" {
			names = append(names, opt.Name)
		}
	}
	return strings.Join(names, ", ")
}

func dateText(d *notionapi.DateObject) string {
	if d == nil || d.Start == nil {
		return ""
	}
	return time.Time(*d.Start).Format(time.RFC3339)
}

// fileURL returns the URL of the first file attachment, covering both
// externally-hosted and Notion-hosted files.
func fileURL(files []notionapi.File) string {
	for _, f := range files {
		if f.External != nil && f.External.URL != "" {
			return f.External.URL
		}
		if f.File != nil && f.File.URL != "" {
			return f.File.URL
		}
	}
	return ""
}
