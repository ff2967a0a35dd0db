// Package prompt assembles the bounded-size model prompt from a question and
// its retrieved context. Building is a pure function of its inputs: the same
// query and context always produce byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
)

// Instruction is the fixed preamble. The model must answer only from the
// supplied records and cite the identifiers it used.
const Instruction = `You are Rolodex, an assistant for a CRM system. Answer the question using ONLY the records below.
Cite the identifier of every record you used in square brackets, e.g. [c1].
If the records do not contain the answer, say so plainly and cite nothing.`

// Options configures prompt budgets, counted in cl100k_base tokens.
type Options struct {
	PerRecordTokens int
	MaxPromptTokens int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		PerRecordTokens: 256,
		MaxPromptTokens: 2048,
	}
}

// Builder builds prompts under a token budget.
type Builder struct {
	opts Options
	tk   *tiktoken.Tiktoken
}

// New creates a Builder. Loading the tokenizer can fail on first use when
// the encoding data is missing.
func New(opts Options) (*Builder, error) {
	if opts.PerRecordTokens <= 0 {
		opts.PerRecordTokens = DefaultOptions().PerRecordTokens
	}
	if opts.MaxPromptTokens <= 0 {
		opts.MaxPromptTokens = DefaultOptions().MaxPromptTokens
	}
	tk, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("prompt: load tokenizer: %w", err)
	}
	return &Builder{opts: opts, tk: tk}, nil
}

// Build produces the prompt string. Records appear in context order
// (relevance descending); when the budget is exceeded the lowest-relevance
// records are dropped first. Fails with ContextTooLarge only if even the
// single highest-relevance record cannot fit.
func (b *Builder) Build(q domain.Query, rc domain.RetrievedContext) (string, error) {
	blocks := make([]string, len(rc.Refs))
	for i, ref := range rc.Refs {
		blocks[i] = b.recordBlock(ref)
	}

	frame := b.frame(q.Question, nil)
	budget := b.opts.MaxPromptTokens - b.count(frame)

	kept := blocks
	for len(kept) > 0 && b.countAll(kept) > budget {
		kept = kept[:len(kept)-1]
	}
	if len(rc.Refs) > 0 && len(kept) == 0 {
		return "", domain.Fail("prompt", domain.ErrContextTooLarge,
			"best record alone needs %d tokens, budget leaves %d; reduce retrieval K or raise the budget",
			b.count(blocks[0]), budget)
	}

	return b.frame(q.Question, kept), nil
}

// frame renders the full prompt around the given record blocks.
func (b *Builder) frame(question string, blocks []string) string {
	var sb strings.Builder
	sb.WriteString(Instruction)
	sb.WriteString("\n\nRECORDS:\n")
	if len(blocks) == 0 {
		sb.WriteString("(none)\n")
	} else {
		for _, blk := range blocks {
			sb.WriteString(blk)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}

// recordBlock renders one record, truncating its text to the per-record
// token budget.
func (b *Builder) recordBlock(ref domain.RecordRef) string {
	text := ref.Text
	ids := b.tk.Encode(text, nil, nil)
	if len(ids) > b.opts.PerRecordTokens {
		text = b.tk.Decode(ids[:b.opts.PerRecordTokens]) + "..."
	}
	return fmt.Sprintf("[%s] (%s, relevance %.2f)\n%s", ref.ID, ref.Kind, ref.Score, text)
}

func (b *Builder) count(s string) int {
	return len(b.tk.Encode(s, nil, nil))
}

func (b *Builder) countAll(blocks []string) int {
	n := 0
	for _, blk := range blocks {
		n += b.count(blk) + 1 // trailing newline
	}
	return n
}
