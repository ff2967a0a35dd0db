// Package ask orchestrates one question/answer cycle: retrieve relevant
// records, build a bounded prompt, call the model runtime, and validate the
// output into a source-attributed Answer. Each call is an independent unit
// of work; the service holds no per-request state and is safe for
// concurrent use.
package ask

import (
	"context"
	"log/slog"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
)

// ContextRetriever selects and ranks records relevant to a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, q domain.Query) (domain.RetrievedContext, error)
}

// PromptBuilder assembles the bounded model prompt.
type PromptBuilder interface {
	Build(q domain.Query, rc domain.RetrievedContext) (string, error)
}

// ModelClient invokes the language-model runtime. Implementations own their
// timeout and retry discipline and surface ModelUnavailable on exhaustion.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ResponseValidator checks raw model output for grounding.
type ResponseValidator interface {
	Validate(raw string, rc domain.RetrievedContext) (domain.Answer, error)
}

// Event describes one completed (or failed) query cycle, for audit.
type Event struct {
	Question     string        `json:"question"`
	ContactScope string        `json:"contact_scope,omitempty"`
	Answer       domain.Answer `json:"answer"`
	Failure      string        `json:"failure,omitempty"`
	Retrieved    int           `json:"retrieved"`
	Elapsed      time.Duration `json:"elapsed"`
	At           time.Time     `json:"at"`
}

// Service is the single entry point of the answer pipeline.
type Service struct {
	retrieve ContextRetriever
	prompt   PromptBuilder
	model    ModelClient
	validate ResponseValidator
	sinks    []func(context.Context, Event)
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink registers a callback invoked after every cycle, successful
// or not. Used for audit events and metrics; must not block. May be given
// more than once.
func WithEventSink(sink func(context.Context, Event)) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

// New creates a Service.
func New(retrieve ContextRetriever, prompt PromptBuilder, model ModelClient, validate ResponseValidator, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		retrieve: retrieve,
		prompt:   prompt,
		model:    model,
		validate: validate,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ask runs the full pipeline for one query. Typed pipeline failures
// propagate unchanged; components already performed whatever retrying their
// contract allows. An empty retrieval is answered directly without invoking
// the model.
func (s *Service) Ask(ctx context.Context, q domain.Query) (domain.Answer, error) {
	start := time.Now()
	q.Question = domain.SanitizeQuestion(q.Question)
	if q.IssuedAt.IsZero() {
		q.IssuedAt = start
	}
	if err := domain.ValidateQuery(q); err != nil {
		return domain.Answer{}, err
	}

	s.logger.Info("ask start", "question_len", len(q.Question), "scope", q.ContactScope)

	rc, err := s.retrieve.Retrieve(ctx, q)
	if err != nil {
		return s.fail(ctx, q, start, 0, err)
	}

	if rc.Empty() {
		// Nothing cleared the relevance threshold: answering from thin
		// air would be ungrounded by construction, so skip the model.
		s.logger.Info("ask empty context, skipping model")
		ans := domain.NoDataAnswer()
		s.emit(ctx, q, start, 0, ans, nil)
		return ans, nil
	}

	promptText, err := s.prompt.Build(q, rc)
	if err != nil {
		return s.fail(ctx, q, start, len(rc.Refs), err)
	}

	raw, err := s.model.Generate(ctx, promptText)
	if err != nil {
		return s.fail(ctx, q, start, len(rc.Refs), err)
	}

	ans, err := s.validate.Validate(raw, rc)
	if err != nil {
		return s.fail(ctx, q, start, len(rc.Refs), err)
	}

	s.logger.Info("ask done",
		"grounded", ans.Grounded,
		"sources", len(ans.Sources),
		"confidence", ans.Confidence,
		"elapsed", time.Since(start),
	)
	s.emit(ctx, q, start, len(rc.Refs), ans, nil)
	return ans, nil
}

func (s *Service) fail(ctx context.Context, q domain.Query, start time.Time, retrieved int, err error) (domain.Answer, error) {
	s.logger.Error("ask failed", "failure", domain.FailureName(err), "err", err)
	s.emit(ctx, q, start, retrieved, domain.Answer{}, err)
	return domain.Answer{}, err
}

func (s *Service) emit(ctx context.Context, q domain.Query, start time.Time, retrieved int, ans domain.Answer, err error) {
	if len(s.sinks) == 0 {
		return
	}
	ev := Event{
		Question:     q.Question,
		ContactScope: q.ContactScope,
		Answer:       ans,
		Retrieved:    retrieved,
		Elapsed:      time.Since(start),
		At:           start.UTC(),
	}
	if err != nil {
		ev.Failure = domain.FailureName(err)
	}
	for _, sink := range s.sinks {
		sink(ctx, ev)
	}
}
