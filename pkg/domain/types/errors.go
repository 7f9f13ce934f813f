package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across the ingestion and search paths.
// Each tag maps to one failure class of the pipeline: callers branch on the
// tag, not on the concrete error value.
var (
	// ErrTagFetch marks failures to reach an external content source or a
	// non-success HTTP status from it.
	ErrTagFetch = goerr.NewTag("fetch")

	// ErrTagParse marks a source payload that was retrieved but could not be
	// decoded into records.
	ErrTagParse = goerr.NewTag("parse")

	// ErrTagEmbedding marks embedding service failures (network, quota/auth,
	// malformed response). Recovered per record, never aborts a run.
	ErrTagEmbedding = goerr.NewTag("embedding")

	// ErrTagPersistence marks catalog store write failures. Errors with this
	// tag carry a "committed_count" value with the rows written before the
	// failing chunk.
	ErrTagPersistence = goerr.NewTag("persistence")

	// ErrTagConfig marks unmet preconditions (missing credentials, URLs).
	ErrTagConfig = goerr.NewTag("config")
)

// IsFetchErr reports whether err is tagged as a source fetch failure.
func IsFetchErr(err error) bool { return goerr.HasTag(err, ErrTagFetch) }

// IsParseErr reports whether err is tagged as a source payload parse failure.
func IsParseErr(err error) bool { return goerr.HasTag(err, ErrTagParse) }

// IsEmbeddingErr reports whether err is tagged as an embedding service failure.
func IsEmbeddingErr(err error) bool { return goerr.HasTag(err, ErrTagEmbedding) }

// IsPersistenceErr reports whether err is tagged as a store write failure.
func IsPersistenceErr(err error) bool { return goerr.HasTag(err, ErrTagPersistence) }

// IsConfigErr reports whether err is tagged as a configuration failure.
func IsConfigErr(err error) bool { return goerr.HasTag(err, ErrTagConfig) }

// CommittedCountKey is the goerr value key carrying partial upsert progress.
const CommittedCountKey = "committed_count"
