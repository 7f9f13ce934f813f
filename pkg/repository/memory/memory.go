package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/interfaces"
	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/domain/types"
)

// DefaultChunkSize bounds how many tools one upsert chunk carries.
const DefaultChunkSize = 50

// Memory is the in-memory catalog store for development and tests. It
// implements the same contract as the Firestore backend: chunked idempotent
// upsert, cosine vector search, lexical text search with phrase/exclusion
// operators, and launch-date ordering.
type Memory struct {
	mu        sync.RWMutex
	tools     map[string]*model.Tool
	chunkSize int

	// upsertFault, when set, is invoked before each chunk write with the
	// zero-based chunk index. Used by tests to force partial failures.
	upsertFault func(chunk int) error
}

var _ interfaces.Repository = &Memory{}

type Option func(*Memory)

// WithChunkSize overrides the upsert chunk size.
func WithChunkSize(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// WithUpsertFault installs a per-chunk fault hook for tests.
func WithUpsertFault(fn func(chunk int) error) Option {
	return func(m *Memory) {
		m.upsertFault = fn
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		tools:     make(map[string]*model.Tool),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) UpsertTools(ctx context.Context, tools []*model.Tool) (int, error) {
	committed := 0

	for chunk := 0; committed < len(tools); chunk++ {
		end := committed + m.chunkSize
		if end > len(tools) {
			end = len(tools)
		}

		if m.upsertFault != nil {
			if err := m.upsertFault(chunk); err != nil {
				return committed, goerr.Wrap(err, "failed to upsert chunk",
					goerr.T(types.ErrTagPersistence),
					goerr.V("chunk", chunk),
					goerr.V(types.CommittedCountKey, committed))
			}
		}

		m.mu.Lock()
		for _, tool := range tools[committed:end] {
			m.tools[tool.StableID] = tool.Clone()
		}
		m.mu.Unlock()

		committed = end
	}

	return committed, nil
}

func (m *Memory) VectorSearch(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		tool  *model.Tool
		score float64
	}

	var matches []scored
	for _, tool := range m.tools {
		if tool.Embedding == nil {
			continue
		}
		score := cosineSimilarity(embedding, tool.Embedding)
		if score >= threshold {
			matches = append(matches, scored{tool: tool.Clone(), score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	result := make([]*model.Tool, 0, limit)
	for _, match := range matches {
		if len(result) >= limit {
			break
		}
		result = append(result, match.tool)
	}
	return result, nil
}

func (m *Memory) TextSearch(ctx context.Context, query string, limit int) ([]*model.Tool, error) {
	includes, phrases, excludes := parseQuery(query)
	if len(includes) == 0 && len(phrases) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		tool  *model.Tool
		score int
	}

	var matches []scored
	for _, tool := range m.tools {
		text := strings.ToLower(strings.Join([]string{
			tool.Name, tool.Description, tool.Category, tool.PricingModel,
		}, " "))

		if containsAny(text, excludes) {
			continue
		}
		if !containsAll(text, phrases) {
			continue
		}

		score := len(phrases)
		for _, term := range includes {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		matches = append(matches, scored{tool: tool.Clone(), score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].tool.Name < matches[j].tool.Name
	})

	result := make([]*model.Tool, 0, limit)
	for _, match := range matches {
		if len(result) >= limit {
			break
		}
		result = append(result, match.tool)
	}
	return result, nil
}

func (m *Memory) Latest(ctx context.Context, limit int) ([]*model.Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*model.Tool, 0, len(m.tools))
	for _, tool := range m.tools {
		all = append(all, tool.Clone())
	}

	sort.Slice(all, func(i, j int) bool { return all[i].LaunchDate.After(all[j].LaunchDate) })

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) Close() error {
	return nil
}

// Count returns the number of stored tools. Test helper.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tools)
}

// Get returns the stored tool for a stable ID, or nil. Test helper.
func (m *Memory) Get(stableID string) *model.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tool, ok := m.tools[stableID]; ok {
		return tool.Clone()
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// parseQuery splits a query into include terms, quoted phrases, and '-'
// prefixed exclusion terms, mirroring the operators the bleve-backed
// production index supports.
func parseQuery(query string) (includes, phrases, excludes []string) {
	rest := strings.TrimSpace(strings.ToLower(query))

	for {
		start := strings.Index(rest, `"`)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+1:], `"`)
		if end < 0 {
			break
		}
		if phrase := strings.TrimSpace(rest[start+1 : start+1+end]); phrase != "" {
			phrases = append(phrases, phrase)
		}
		rest = rest[:start] + " " + rest[start+end+2:]
	}

	for _, term := range strings.Fields(rest) {
		if excluded, ok := strings.CutPrefix(term, "-"); ok {
			if excluded != "" {
				excludes = append(excludes, excluded)
			}
			continue
		}
		includes = append(includes, term)
	}
	return includes, phrases, excludes
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func containsAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
