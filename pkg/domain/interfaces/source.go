package interfaces

import (
	"context"
	"iter"

	"github.com/finderslab/toolscout/pkg/domain/model"
)

// SourceAdapter fetches raw records from one external content source. An
// adapter performs network I/O only; it never mutates persisted state.
type SourceAdapter interface {
	// Tag identifies the source instance. It is folded into derived stable
	// IDs, so it must be stable across runs.
	Tag() string

	// Kind reports which adapter family this is.
	Kind() model.SourceKind

	// Fetch yields all matching records from the source, following
	// pagination where the source truncates results. A yielded error is
	// tagged types.ErrTagFetch or types.ErrTagParse and terminates the
	// sequence.
	Fetch(ctx context.Context) iter.Seq2[model.RawRecord, error]
}
