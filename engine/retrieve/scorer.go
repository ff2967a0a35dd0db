package retrieve

import (
	"math"
	"strings"
)

// stopWords are excluded from relevance scoring.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "to": true,
	"of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "into": true,
	"about": true, "what": true, "where": true, "when": true, "how": true,
	"which": true, "who": true, "whom": true, "this": true, "that": true,
	"these": true, "those": true, "i": true, "me": true, "my": true,
	"it": true, "its": true, "and": true, "but": true, "or": true,
	"not": true, "whats": true,
}

// Tokenize lowercases text, strips punctuation, and drops stop words and
// single characters. Possessives collapse onto their stem ("john's" → "john").
func Tokenize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	var out []string
	for _, w := range words {
		w = strings.Trim(w, "?.,!;:'\"()[]")
		w = strings.ReplaceAll(w, "'s", "")
		w = strings.ReplaceAll(w, "’s", "")
		if len(w) > 1 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// termFreq builds a term-frequency vector from tokens.
func termFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// cosine computes cosine similarity between two term-frequency vectors.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for t, va := range a {
		normA += va * va
		if vb, ok := b[t]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Relevance scores a record's text against pre-tokenized question terms.
// Deterministic; returns a value in [0,1].
func Relevance(questionTF map[string]float64, recordText string) float64 {
	return cosine(questionTF, termFreq(Tokenize(recordText)))
}
