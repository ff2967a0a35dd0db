package domain

import (
	"fmt"
	"strings"
)

// RenderContact produces the canonical one-line text representation of a
// contact: "Name (company) - Email: x - Phone: y". This is the text the
// retriever scores against and the prompt builder includes.
func RenderContact(c Contact) string {
	parts := []string{c.Name}
	if v := c.Fields[FieldCompany]; v != "" {
		parts[0] = fmt.Sprintf("%s (%s)", c.Name, v)
	}
	if v := c.Fields[FieldTitle]; v != "" {
		parts = append(parts, v)
	}
	if v := c.Fields[FieldEmail]; v != "" {
		parts = append(parts, "Email: "+v)
	}
	if v := c.Fields[FieldPhone]; v != "" {
		parts = append(parts, "Phone: "+v)
	}
	if v := c.Fields[FieldAddress]; v != "" {
		parts = append(parts, "Address: "+v)
	}
	return strings.Join(parts, " - ")
}

// RenderNote produces the canonical text representation of a note,
// optionally naming the contact it is about.
func RenderNote(n Note, contactName string) string {
	var b strings.Builder
	b.WriteString(n.Body)
	if contactName != "" {
		fmt.Fprintf(&b, " (about: %s)", contactName)
	}
	return b.String()
}

// ContactRef wraps a contact as a retrieval reference with the given score.
func ContactRef(c Contact, score float64) RecordRef {
	return RecordRef{ID: c.ID, Kind: KindContact, Text: RenderContact(c), Score: score}
}

// NoteRef wraps a note as a retrieval reference with the given score.
func NoteRef(n Note, contactName string, score float64) RecordRef {
	return RecordRef{
		ID:        n.ID,
		Kind:      KindNote,
		Text:      RenderNote(n, contactName),
		Score:     score,
		CreatedAt: n.CreatedAt,
	}
}
