package retrieve

import (
	"context"
	"log/slog"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/engine/semantic"
	"github.com/RolodexAI/rolodex-mvp/pkg/fn"
)

// Embedder turns question text into a vector. Implemented by pkg/ollama.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher abstracts the record vector index.
type VectorSearcher interface {
	SearchFiltered(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]semantic.SearchResult, error)
}

// Semantic retrieves via embedding similarity against a pre-built vector
// index. The index is retrieval infrastructure, so its failures surface
// through the same store taxonomy as the lexical path.
type Semantic struct {
	embed  Embedder
	search VectorSearcher
	opts   Options
	logger *slog.Logger
}

// NewSemantic creates a semantic retriever.
func NewSemantic(embed Embedder, search VectorSearcher, opts Options, logger *slog.Logger) *Semantic {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultOptions().StoreTimeout
	}
	return &Semantic{embed: embed, search: search, opts: opts, logger: logger}
}

// Retrieve embeds the question and searches the index, honoring the same
// bounds and ordering rules as the lexical retriever.
func (s *Semantic) Retrieve(ctx context.Context, q domain.Query) (domain.RetrievedContext, error) {
	searchCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	vec, err := s.embed.Embed(searchCtx, q.Question)
	if err != nil {
		return domain.RetrievedContext{}, storeFailure("retrieve: embed", err)
	}

	var filters map[string]string
	if q.ContactScope != "" {
		filters = map[string]string{"contact_id": q.ContactScope}
	}

	hits, err := s.search.SearchFiltered(searchCtx, vec, s.opts.TopK, filters)
	if err != nil {
		return domain.RetrievedContext{}, storeFailure("retrieve: search", err)
	}

	refs := fn.Map(hits, func(h semantic.SearchResult) domain.RecordRef {
		ref := domain.RecordRef{
			ID:    h.ID,
			Kind:  domain.RecordKind(h.Kind),
			Text:  h.Text,
			Score: float64(h.Score),
		}
		if h.CreatedAt > 0 {
			ref.CreatedAt = time.Unix(h.CreatedAt, 0).UTC()
		}
		return ref
	})

	ranked := Rank(refs, s.opts.TopK, s.opts.MinRelevance)
	s.logger.Debug("semantic retrieval done",
		"hits", len(hits), "kept", len(ranked), "scope", q.ContactScope)
	return domain.RetrievedContext{Refs: ranked}, nil
}
