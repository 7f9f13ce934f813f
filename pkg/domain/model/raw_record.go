package model

// SourceKind tags which adapter produced a raw record. The two kinds feed
// the same normalization path but derive stable IDs differently when the
// source provides no native identifier.
type SourceKind string

const (
	// SourceKindFeed is a delimited text feed fetched over HTTP GET.
	SourceKindFeed SourceKind = "feed"

	// SourceKindNotion is a Notion database queried over the Notion API.
	SourceKindNotion SourceKind = "notion"
)

// RawRecord is the uniform record shape yielded by source adapters: a flat
// mapping of source-specific field names to string values, plus the identity
// of the source that produced it. No schema is enforced at this layer.
type RawRecord struct {
	Kind      SourceKind
	SourceTag string
	Fields    map[string]string
}

// Field returns the named field value, or "" when absent.
func (r RawRecord) Field(name string) string {
	return r.Fields[name]
}
