package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type mockResult struct {
	records []*neo4j.Record
	idx     int
}

func (m *mockResult) Next(context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record { return m.records[m.idx-1] }

type mockRunner struct {
	result  *mockResult
	err     error
	cyphers []string
	params  []map[string]any
}

func (m *mockRunner) Run(_ context.Context, cypher string, params map[string]any) (result, error) {
	m.cyphers = append(m.cyphers, cypher)
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockRunner) Close(context.Context) error { return nil }

type person struct {
	ID   string
	Name string
}

func personRecord(id, name string) *neo4j.Record {
	return &neo4j.Record{
		Values: []any{map[string]any{"id": id, "name": name}},
		Keys:   []string{"n"},
	}
}

func personFromRecord(rec *neo4j.Record) (person, error) {
	m, ok := rec.Values[0].(map[string]any)
	if !ok {
		return person{}, fmt.Errorf("unexpected record shape")
	}
	return person{ID: m["id"].(string), Name: m["name"].(string)}, nil
}

func newTestRepo(r *mockRunner) *Neo4jRepo[person, string] {
	repo := NewNeo4jRepo[person, string](
		nil, "Contact",
		func(p person) map[string]any { return map[string]any{"id": p.ID, "name": p.Name} },
		personFromRecord,
	)
	repo.newSession = func(context.Context) runner { return r }
	return repo
}

func TestGet(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{personRecord("c1", "John Smith")}}}
	repo := newTestRepo(r)

	p, err := repo.Get(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "John Smith" {
		t.Errorf("got %+v", p)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(&mockRunner{result: &mockResult{}})
	if _, err := repo.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_RunError(t *testing.T) {
	repo := newTestRepo(&mockRunner{err: errors.New("db down")})
	if _, err := repo.Get(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestList(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{
		personRecord("c1", "John"), personRecord("c2", "Ada"),
	}}}
	repo := newTestRepo(r)

	items, err := repo.List(context.Background(), ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].Name != "Ada" {
		t.Errorf("got %+v", items)
	}
	if p := r.params[0]; p["limit"] != 10 {
		t.Errorf("limit param = %v", p["limit"])
	}
}

func TestList_DefaultLimit(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	repo := newTestRepo(r)
	if _, err := repo.List(context.Background(), ListOpts{}); err != nil {
		t.Fatal(err)
	}
	if p := r.params[0]; p["limit"] != 100 {
		t.Errorf("default limit = %v", p["limit"])
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	repo := newTestRepo(r)

	_, err := repo.List(context.Background(), ListOpts{
		Filter:  map[string]any{"contact_id": "c1"},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		t.Fatal(err)
	}

	cypher := r.cyphers[0]
	if !strings.Contains(cypher, "WHERE n.contact_id = $f0") {
		t.Errorf("missing filter predicate: %s", cypher)
	}
	if !strings.Contains(cypher, "ORDER BY n.created_at DESC") {
		t.Errorf("missing order clause: %s", cypher)
	}
	if r.params[0]["f0"] != "c1" {
		t.Errorf("filter param = %v", r.params[0]["f0"])
	}
}

func TestList_StableFilterOrder(t *testing.T) {
	filter := map[string]any{"b": 2, "a": 1, "c": 3}
	for i := 0; i < 10; i++ {
		params := map[string]any{}
		got := whereClause(filter, params)
		want := " WHERE n.a = $f0 AND n.b = $f1 AND n.c = $f2"
		if got != want {
			t.Fatalf("unstable clause: %q", got)
		}
	}
}

func TestList_BadRecord(t *testing.T) {
	bad := &neo4j.Record{Values: []any{"not a map"}, Keys: []string{"n"}}
	repo := newTestRepo(&mockRunner{result: &mockResult{records: []*neo4j.Record{bad}}})
	if _, err := repo.List(context.Background(), ListOpts{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreate(t *testing.T) {
	r := &mockRunner{result: &mockResult{records: []*neo4j.Record{personRecord("c3", "Grace")}}}
	repo := newTestRepo(r)

	p, err := repo.Create(context.Background(), person{ID: "c3", Name: "Grace"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "c3" {
		t.Errorf("got %+v", p)
	}
	if !strings.Contains(r.cyphers[0], "CREATE (n:Contact $props)") {
		t.Errorf("cypher: %s", r.cyphers[0])
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newTestRepo(&mockRunner{result: &mockResult{}})
	if _, err := repo.Update(context.Background(), person{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete(t *testing.T) {
	r := &mockRunner{result: &mockResult{}}
	repo := newTestRepo(r)
	if err := repo.Delete(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.cyphers[0], "DETACH DELETE n") {
		t.Errorf("cypher: %s", r.cyphers[0])
	}
}

func TestWithIDKey(t *testing.T) {
	repo := NewNeo4jRepo[person, string](nil, "Note", nil, nil,
		WithIDKey[person, string]("note_id"))
	if repo.idKey != "note_id" {
		t.Errorf("idKey = %s", repo.idKey)
	}
}
