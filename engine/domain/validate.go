package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Injection patterns — SQL/template fragments that should never appear in a
// user question.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)\$\{.*\}`),
}

const maxQuestionLength = 2000

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeQuestion collapses whitespace and strips angle/brace characters.
// Applied before validation; the sanitized text is what the pipeline sees.
func SanitizeQuestion(text string) string {
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '{', '}':
			return -1
		}
		return r
	}, text)
}

// ValidateQuery checks a query at pipeline entry.
func ValidateQuery(q Query) error {
	text := strings.TrimSpace(q.Question)
	if text == "" {
		return ErrEmptyQuestion
	}
	if utf8.RuneCountInString(text) > maxQuestionLength {
		return fmt.Errorf("%w: %d runes", ErrQuestionTooLong, utf8.RuneCountInString(text))
	}
	for _, pat := range injectionPatterns {
		if pat.MatchString(text) {
			return ErrQuestionUnsafe
		}
	}
	return nil
}

// ValidateContact checks a contact at the record-store boundary. Unknown
// field names are rejected rather than passed through.
func ValidateContact(c Contact) error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidContact)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: %s: missing name", ErrInvalidContact, c.ID)
	}
	for name := range c.Fields {
		if !ValidFieldNames[name] {
			return fmt.Errorf("%w: %q on contact %s", ErrUnknownField, name, c.ID)
		}
	}
	return nil
}

// ValidateNote checks a note at the record-store boundary.
func ValidateNote(n Note) error {
	if n.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidNote)
	}
	if n.ContactID == "" {
		return fmt.Errorf("%w: %s: missing contact reference", ErrInvalidNote, n.ID)
	}
	if strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("%w: %s: empty body", ErrInvalidNote, n.ID)
	}
	return nil
}
