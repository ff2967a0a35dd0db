package records

import (
	"context"
	"fmt"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
)

// DemoContacts is a small dataset for local development and demos.
var DemoContacts = []domain.Contact{
	{ID: "c-john", Name: "John Smith", Fields: map[domain.FieldName]string{
		domain.FieldCompany: "Acme Corp",
		domain.FieldEmail:   "john.smith@acme.example",
		domain.FieldPhone:   "555-0100",
		domain.FieldTitle:   "Procurement Lead",
	}},
	{ID: "c-ada", Name: "Ada Okafor", Fields: map[domain.FieldName]string{
		domain.FieldCompany: "Brightline Logistics",
		domain.FieldEmail:   "ada@brightline.example",
		domain.FieldPhone:   "555-0188",
	}},
	{ID: "c-sam", Name: "Sam Keller", Fields: map[domain.FieldName]string{
		domain.FieldCompany: "Keller & Sons",
		domain.FieldAddress: "14 Harbor Way, Portland",
	}},
}

// DemoNotes references DemoContacts by ID.
var DemoNotes = []domain.Note{
	{ID: "n-john-1", ContactID: "c-john", Body: "Asked for a revised quote on the Q3 order, wants it by Friday.",
		CreatedAt: time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC)},
	{ID: "n-john-2", ContactID: "c-john", Body: "Prefers phone over email for anything urgent.",
		CreatedAt: time.Date(2026, 7, 20, 9, 30, 0, 0, time.UTC)},
	{ID: "n-ada-1", ContactID: "c-ada", Body: "Renewal conversation went well, budget approval expected next month.",
		CreatedAt: time.Date(2026, 8, 2, 15, 45, 0, 0, time.UTC)},
	{ID: "n-sam-1", ContactID: "c-sam", Body: "On vacation until the 25th, follow up after.",
		CreatedAt: time.Date(2026, 8, 10, 11, 15, 0, 0, time.UTC)},
}

// Seed loads the demo dataset. Existing nodes with the same IDs cause
// duplicate rows, so this is meant for a fresh database.
func (s *Store) Seed(ctx context.Context) error {
	for _, c := range DemoContacts {
		if _, err := s.CreateContact(ctx, c); err != nil {
			return fmt.Errorf("seed contact %s: %w", c.ID, err)
		}
	}
	for _, n := range DemoNotes {
		if _, err := s.CreateNote(ctx, n); err != nil {
			return fmt.Errorf("seed note %s: %w", n.ID, err)
		}
	}
	return nil
}
