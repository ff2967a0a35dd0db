package records

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/pkg/repo"
)

// newContactRepo creates a Neo4j-backed repository for Contact nodes.
func newContactRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[domain.Contact, string] {
	return repo.NewNeo4jRepo[domain.Contact, string](
		driver,
		"Contact",
		contactToMap,
		contactFromRecord,
	)
}

// newNoteRepo creates a Neo4j-backed repository for Note nodes.
func newNoteRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[domain.Note, string] {
	return repo.NewNeo4jRepo[domain.Note, string](
		driver,
		"Note",
		noteToMap,
		noteFromRecord,
	)
}

func contactToMap(c domain.Contact) map[string]any {
	m := map[string]any{
		"id":   c.ID,
		"name": c.Name,
	}
	for k, v := range c.Fields {
		m[string(k)] = v
	}
	return m
}

func contactFromRecord(rec *neo4j.Record) (domain.Contact, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.Contact{}, err
	}
	props := node.Props
	c := domain.Contact{
		ID:     strProp(props, "id"),
		Name:   strProp(props, "name"),
		Fields: make(map[domain.FieldName]string),
	}
	// Only the recognised field set crosses the boundary; stray node
	// properties stay behind.
	for k, v := range props {
		name := domain.FieldName(k)
		if !domain.ValidFieldNames[name] {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			c.Fields[name] = s
		}
	}
	return c, nil
}

func noteToMap(n domain.Note) map[string]any {
	return map[string]any{
		"id":         n.ID,
		"contact_id": n.ContactID,
		"body":       n.Body,
		"created_at": n.CreatedAt.Unix(),
	}
}

func noteFromRecord(rec *neo4j.Record) (domain.Note, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.Note{}, err
	}
	props := node.Props
	n := domain.Note{
		ID:        strProp(props, "id"),
		ContactID: strProp(props, "contact_id"),
		Body:      strProp(props, "body"),
	}
	if ts, ok := props["created_at"].(int64); ok {
		n.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return n, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
