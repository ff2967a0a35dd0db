package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"valid", "Who are my contacts at Google?", nil},
		{"empty", "", ErrEmptyQuestion},
		{"whitespace only", "   \t\n", ErrEmptyQuestion},
		{"too long", strings.Repeat("a", 2001), ErrQuestionTooLong},
		{"sql injection", "DROP TABLE contacts; SELECT * FROM notes", ErrQuestionUnsafe},
		{"script tag", "hello <script>alert(1)</script>", ErrQuestionUnsafe},
		{"template injection", "show ${env.SECRET}", ErrQuestionUnsafe},
		{"question mentioning delete plainly", "did I delete John's number?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(Query{Question: tt.text, IssuedAt: time.Now()})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeQuestion(t *testing.T) {
	got := SanitizeQuestion("  what   is\tJohn's\n phone?  ")
	if got != "what is John's phone?" {
		t.Errorf("unexpected sanitized text: %q", got)
	}
	if got := SanitizeQuestion("a <b> {c}"); got != "a b c" {
		t.Errorf("brackets should be stripped, got %q", got)
	}
}

func TestValidateContact(t *testing.T) {
	valid := Contact{ID: "c1", Name: "John Doe", Fields: map[FieldName]string{FieldPhone: "555-0100"}}
	if err := ValidateContact(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ValidateContact(Contact{Name: "x"}); !errors.Is(err, ErrInvalidContact) {
		t.Errorf("missing id: got %v", err)
	}
	if err := ValidateContact(Contact{ID: "c1", Name: "  "}); !errors.Is(err, ErrInvalidContact) {
		t.Errorf("blank name: got %v", err)
	}

	unknown := Contact{ID: "c1", Name: "x", Fields: map[FieldName]string{"favourite_color": "red"}}
	if err := ValidateContact(unknown); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: got %v", err)
	}
}

func TestValidateNote(t *testing.T) {
	valid := Note{ID: "n1", ContactID: "c1", Body: "met at conference", CreatedAt: time.Now()}
	if err := ValidateNote(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateNote(Note{ContactID: "c1", Body: "x"}); !errors.Is(err, ErrInvalidNote) {
		t.Errorf("missing id: got %v", err)
	}
	if err := ValidateNote(Note{ID: "n1", Body: "x"}); !errors.Is(err, ErrInvalidNote) {
		t.Errorf("missing contact: got %v", err)
	}
	if err := ValidateNote(Note{ID: "n1", ContactID: "c1", Body: " "}); !errors.Is(err, ErrInvalidNote) {
		t.Errorf("empty body: got %v", err)
	}
}

func TestFailureName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Fail("retrieve", ErrStoreUnavailable, "dial refused"), "StoreUnavailable"},
		{Fail("retrieve", ErrStoreTimeout, "after 2s"), "StoreTimeout"},
		{Fail("prompt", ErrContextTooLarge, "best record needs 900 tokens"), "ContextTooLarge"},
		{Fail("model", ErrModelUnavailable, "3 attempts"), "ModelUnavailable"},
		{Fail("answer", ErrMalformedResponse, "empty output"), "MalformedResponse"},
		{errors.New("something else"), ""},
	}
	for _, tt := range tests {
		if got := FailureName(tt.err); got != tt.want {
			t.Errorf("FailureName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFailureUnwrap(t *testing.T) {
	f := Fail("model", ErrModelUnavailable, "retries exhausted after %d attempts", 3)
	if !errors.Is(f, ErrModelUnavailable) {
		t.Error("Failure should unwrap to its sentinel")
	}
	if !strings.Contains(f.Error(), "model:") || !strings.Contains(f.Error(), "3 attempts") {
		t.Errorf("unexpected message: %s", f.Error())
	}
}
