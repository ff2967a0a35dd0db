// Package answer validates raw model output against the context it was
// grounded in, producing the final source-attributed Answer.
package answer

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/pkg/fn"
)

// citationPattern matches [id] markers the model was instructed to emit.
var citationPattern = regexp.MustCompile(`\[([A-Za-z0-9][A-Za-z0-9_-]*)\]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// instructionEchoes are fragments of the prompt instruction; output that
// parrots them back carries no answer.
var instructionEchoes = []string{
	"ONLY the records below",
	"Cite the identifier of every record",
}

// Options configures validation.
type Options struct {
	// UngroundedCap is the maximum confidence an answer without valid
	// citations may carry.
	UngroundedCap float64
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{UngroundedCap: 0.2}
}

// Validator checks model output for grounding and well-formedness.
type Validator struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Validator.
func New(opts Options, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UngroundedCap <= 0 {
		opts.UngroundedCap = DefaultOptions().UngroundedCap
	}
	return &Validator{opts: opts, logger: logger}
}

// Validate parses raw model output. Cited identifiers absent from the
// retrieved context are dropped, never fabricated through. Fails with
// MalformedResponse only when no text can be parsed at all.
func (v *Validator) Validate(raw string, rc domain.RetrievedContext) (domain.Answer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Answer{}, domain.Fail("answer", domain.ErrMalformedResponse, "empty model output")
	}

	cited := fn.Unique(extractCitations(raw))
	valid := fn.Filter(cited, rc.Has)
	if dropped := len(cited) - len(valid); dropped > 0 {
		v.logger.Warn("dropped citations not present in retrieved context",
			"cited", len(cited), "dropped", dropped)
	}

	text := stripCitations(raw)
	usable := text != "" && !echoesInstruction(text)

	if len(valid) == 0 || !usable {
		if !usable {
			return domain.NoDataAnswer(), nil
		}
		// The model declined or answered without citing: keep its
		// disclaimer but cap confidence and drop every source.
		return domain.Answer{
			Text:       text,
			Sources:    []string{},
			Confidence: v.opts.UngroundedCap,
			Grounded:   false,
		}, nil
	}

	return domain.Answer{
		Text:       text,
		Sources:    valid,
		Confidence: v.confidence(valid, rc),
		Grounded:   true,
	}, nil
}

// confidence is the mean relevance of the cited sources, clamped to [0,1].
func (v *Validator) confidence(sources []string, rc domain.RetrievedContext) float64 {
	var sum float64
	for _, id := range sources {
		ref, _ := rc.Ref(id)
		sum += ref.Score
	}
	c := sum / float64(len(sources))
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// extractCitations returns cited identifiers in first-appearance order.
func extractCitations(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// stripCitations removes [id] markers and tidies the remaining whitespace.
func stripCitations(text string) string {
	text = citationPattern.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func echoesInstruction(text string) bool {
	for _, echo := range instructionEchoes {
		if strings.Contains(text, echo) {
			return true
		}
	}
	return false
}
