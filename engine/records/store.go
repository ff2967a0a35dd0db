// Package records is the Neo4j-backed store of CRM contacts and notes. It is
// the system of record boundary: everything handed out is a snapshot, and
// writes validate at the edge.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/pkg/repo"
)

// Options configures the store.
type Options struct {
	// ListLimit bounds unscoped listings.
	ListLimit int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{ListLimit: 500}
}

// Store provides read and write access to contact and note nodes.
type Store struct {
	contacts repo.Repository[domain.Contact, string]
	notes    repo.Repository[domain.Note, string]
	driver   neo4j.DriverWithContext
	opts     Options
}

// NewStore creates a Store on an open Neo4j driver.
func NewStore(driver neo4j.DriverWithContext, opts Options) *Store {
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultOptions().ListLimit
	}
	return &Store{
		contacts: newContactRepo(driver),
		notes:    newNoteRepo(driver),
		driver:   driver,
		opts:     opts,
	}
}

// Contacts returns contacts visible to a query. A non-empty scope narrows the
// result to that single contact; an unknown scope yields an empty slice, not
// an error.
func (s *Store) Contacts(ctx context.Context, scope string) ([]domain.Contact, error) {
	opts := repo.ListOpts{Limit: s.opts.ListLimit}
	if scope != "" {
		opts.Filter = map[string]any{"id": scope}
	}
	out, err := s.contacts.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("records: list contacts: %w", err)
	}
	return out, nil
}

// Notes returns notes newest-first, narrowed to one contact when scope is set.
func (s *Store) Notes(ctx context.Context, scope string) ([]domain.Note, error) {
	opts := repo.ListOpts{
		Limit:   s.opts.ListLimit,
		OrderBy: "created_at",
		Desc:    true,
	}
	if scope != "" {
		opts.Filter = map[string]any{"contact_id": scope}
	}
	out, err := s.notes.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("records: list notes: %w", err)
	}
	return out, nil
}

// Contact fetches one contact by ID.
func (s *Store) Contact(ctx context.Context, id string) (domain.Contact, error) {
	c, err := s.contacts.Get(ctx, id)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("records: get contact: %w", err)
	}
	return c, nil
}

// CreateContact validates and stores a contact, assigning an ID when absent.
func (s *Store) CreateContact(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := domain.ValidateContact(c); err != nil {
		return domain.Contact{}, err
	}
	out, err := s.contacts.Create(ctx, c)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("records: create contact: %w", err)
	}
	return out, nil
}

// CreateNote validates and stores a note against an existing contact.
func (s *Store) CreateNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := domain.ValidateNote(n); err != nil {
		return domain.Note{}, err
	}
	if _, err := s.contacts.Get(ctx, n.ContactID); err != nil {
		return domain.Note{}, fmt.Errorf("records: note references missing contact %s: %w", n.ContactID, err)
	}
	out, err := s.notes.Create(ctx, n)
	if err != nil {
		return domain.Note{}, fmt.Errorf("records: create note: %w", err)
	}
	return out, nil
}

// DeleteContact removes a contact node. Notes referencing it are kept; they
// simply stop resolving to a name.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	if err := s.contacts.Delete(ctx, id); err != nil {
		return fmt.Errorf("records: delete contact: %w", err)
	}
	return nil
}

// Ping verifies store connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.driver == nil {
		return fmt.Errorf("records: no driver")
	}
	return s.driver.VerifyConnectivity(ctx)
}
