// Package retrieve selects and ranks the records relevant to a question.
// Two retrievers implement the same contract: Lexical scores rendered record
// text directly against the question, Semantic searches a pre-built vector
// index. Both return a relevance-descending, size-bounded context; an empty
// context is a normal result, not an error.
package retrieve

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/pkg/fn"
)

// RecordStore is the read-only accessor for CRM records. Implementations
// must be safe for concurrent use. A non-empty scope restricts results to a
// single contact (and its notes).
type RecordStore interface {
	Contacts(ctx context.Context, scope string) ([]domain.Contact, error)
	Notes(ctx context.Context, scope string) ([]domain.Note, error)
}

// Options configures retrieval behaviour.
type Options struct {
	TopK         int
	MinRelevance float64
	StoreTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         8,
		MinRelevance: 0.1,
		StoreTimeout: 3 * time.Second,
	}
}

// Lexical retrieves by term-frequency cosine similarity over rendered record
// text. No external index; every query fetches and scores live records.
type Lexical struct {
	store  RecordStore
	opts   Options
	logger *slog.Logger
}

// NewLexical creates a lexical retriever.
func NewLexical(store RecordStore, opts Options, logger *slog.Logger) *Lexical {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultOptions().StoreTimeout
	}
	return &Lexical{store: store, opts: opts, logger: logger}
}

// recordBatch lets contact and note fetches share one fan-out call.
type recordBatch struct {
	contacts []domain.Contact
	notes    []domain.Note
}

// Retrieve returns at most TopK records ranked by relevance to the question,
// filtered to q.ContactScope when set. Store failures surface as
// StoreUnavailable or StoreTimeout.
func (l *Lexical) Retrieve(ctx context.Context, q domain.Query) (domain.RetrievedContext, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.opts.StoreTimeout)
	defer cancel()

	batches := fn.FanOutResult(
		func() fn.Result[recordBatch] {
			cs, err := l.store.Contacts(fetchCtx, q.ContactScope)
			return fn.FromPair(recordBatch{contacts: cs}, err)
		},
		func() fn.Result[recordBatch] {
			ns, err := l.store.Notes(fetchCtx, q.ContactScope)
			return fn.FromPair(recordBatch{notes: ns}, err)
		},
	)
	parts, err := batches.Unwrap()
	if err != nil {
		return domain.RetrievedContext{}, storeFailure("retrieve", err)
	}

	var contacts []domain.Contact
	var notes []domain.Note
	for _, p := range parts {
		contacts = append(contacts, p.contacts...)
		notes = append(notes, p.notes...)
	}

	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}

	qtf := termFreq(Tokenize(q.Question))
	refs := make([]domain.RecordRef, 0, len(contacts)+len(notes))
	for _, c := range contacts {
		text := domain.RenderContact(c)
		refs = append(refs, domain.ContactRef(c, Relevance(qtf, text)))
	}
	for _, n := range notes {
		text := domain.RenderNote(n, names[n.ContactID])
		refs = append(refs, domain.NoteRef(n, names[n.ContactID], Relevance(qtf, text)))
	}

	ranked := Rank(refs, l.opts.TopK, l.opts.MinRelevance)
	l.logger.Debug("lexical retrieval done",
		"candidates", len(refs), "kept", len(ranked), "scope", q.ContactScope)
	return domain.RetrievedContext{Refs: ranked}, nil
}

// Rank filters refs below minRelevance, orders by score descending with ties
// broken by most-recent timestamp then identifier, and bounds the result to
// topK. Deterministic for identical inputs.
func Rank(refs []domain.RecordRef, topK int, minRelevance float64) []domain.RecordRef {
	kept := fn.Filter(refs, func(r domain.RecordRef) bool {
		return r.Score >= minRelevance && r.Score > 0
	})
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// storeFailure maps a transport error to the retrieval failure taxonomy.
func storeFailure(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return domain.Fail(op, domain.ErrStoreTimeout, "%v", err)
	default:
		return domain.Fail(op, domain.ErrStoreUnavailable, "%v", err)
	}
}
