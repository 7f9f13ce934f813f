package source

import "github.com/jomei/notionapi"

// QueryFilterForTest exposes the liveness filter an adapter attaches to
// its database queries.
func (n *Notion) QueryFilterForTest() *notionapi.PropertyFilter {
	return n.statusFilter()
}
