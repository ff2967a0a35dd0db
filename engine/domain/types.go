// Package domain defines core domain types, the typed failure taxonomy, and
// validation for the Rolodex answer pipeline. It acts as the validation gate
// at pipeline entry points; records are checked here at the store boundary
// before anything downstream sees them.
package domain

import "time"

// FieldName identifies a structured contact field. The set is closed: the
// record store may carry arbitrary columns, but only these survive the
// boundary into the core.
type FieldName string

const (
	FieldCompany FieldName = "company"
	FieldEmail   FieldName = "email"
	FieldPhone   FieldName = "phone"
	FieldTitle   FieldName = "title"
	FieldAddress FieldName = "address"
)

// ValidFieldNames is the set of recognised contact fields.
var ValidFieldNames = map[FieldName]bool{
	FieldCompany: true, FieldEmail: true, FieldPhone: true,
	FieldTitle: true, FieldAddress: true,
}

// Contact is a CRM contact as seen by the core: an immutable snapshot owned
// and mutated only by the external record store.
type Contact struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Fields map[FieldName]string `json:"fields,omitempty"`
}

// Note is a free-text note attached to a contact. ContactID is a foreign
// reference, not ownership.
type Note struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Query is one user question. Lives for a single request.
type Query struct {
	Question     string    `json:"question"`
	ContactScope string    `json:"contact_scope,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RecordKind discriminates the two record types a reference can point at.
type RecordKind string

const (
	KindContact RecordKind = "contact"
	KindNote    RecordKind = "note"
)

// RecordRef is one retrieved record with its relevance score in [0,1].
// Text is the rendered representation handed to the prompt builder.
type RecordRef struct {
	ID        string     `json:"id"`
	Kind      RecordKind `json:"kind"`
	Text      string     `json:"text"`
	Score     float64    `json:"score"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// RetrievedContext is the bounded, relevance-descending set of records
// supplied to the model as factual basis. Created per request, discarded
// after the response is produced.
type RetrievedContext struct {
	Refs []RecordRef `json:"refs"`
}

// Empty reports whether no record cleared the relevance threshold.
func (rc RetrievedContext) Empty() bool { return len(rc.Refs) == 0 }

// Has reports whether the context contains a record with the given ID.
func (rc RetrievedContext) Has(id string) bool {
	for _, r := range rc.Refs {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Ref returns the record with the given ID, if present.
func (rc RetrievedContext) Ref(id string) (RecordRef, bool) {
	for _, r := range rc.Refs {
		if r.ID == id {
			return r, true
		}
	}
	return RecordRef{}, false
}

// NoDataText is the canonical answer text when nothing usable was retrieved
// or the model produced nothing grounded.
const NoDataText = "no data found in records"

// Answer is the validated, source-attributed result of one query.
// Invariant: Grounded implies non-empty Sources; empty Sources implies
// !Grounded.
type Answer struct {
	Text       string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Grounded   bool     `json:"grounded"`
}

// NoDataAnswer is the fixed response for the empty-context path.
func NoDataAnswer() Answer {
	return Answer{Text: NoDataText, Sources: []string{}, Confidence: 0, Grounded: false}
}
