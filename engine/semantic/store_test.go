package semantic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// mockPoints captures upsert requests and serves canned search results.
// Unimplemented PointsClient methods panic if reached.
type mockPoints struct {
	pb.PointsClient
	upserted *pb.UpsertPoints
	hits     []*pb.ScoredPoint
}

func (m *mockPoints) Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserted = in
	return &pb.PointsOperationResponse{}, nil
}

func (m *mockPoints) Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error) {
	return &pb.SearchResponse{Result: m.hits}, nil
}

func TestPointIDDeterministic(t *testing.T) {
	a := pointID("c-john")
	b := pointID("c-john")
	if a != b {
		t.Errorf("pointID not deterministic: %q vs %q", a, b)
	}
	if a == pointID("n-john-1") {
		t.Error("distinct record IDs produced the same point ID")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("pointID(%q) = %q is not a valid UUID: %v", "c-john", a, err)
	}
}

func TestUpsertDerivesUUIDPointIDs(t *testing.T) {
	mock := &mockPoints{}
	store := &VectorStore{points: mock, collection: "records"}

	recs := []IndexRecord{
		{ID: "c-john", Text: "John Smith (Acme)", Kind: "contact", ContactID: "c-john", Embedding: []float32{0.1, 0.2}},
		{ID: "n-john-1", Text: "met at conference", Kind: "note", ContactID: "c-john", CreatedAt: 1770000000, Embedding: []float32{0.3, 0.4}},
	}
	if err := store.Upsert(context.Background(), recs); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if mock.upserted == nil {
		t.Fatal("no upsert request sent")
	}

	for i, p := range mock.upserted.GetPoints() {
		id := p.GetId().GetUuid()
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("point %d: ID %q is not a valid UUID: %v", i, id, err)
		}
		if id != pointID(recs[i].ID) {
			t.Errorf("point %d: ID = %q, want derived from %q", i, id, recs[i].ID)
		}
		got := p.GetPayload()["record_id"].GetStringValue()
		if got != recs[i].ID {
			t.Errorf("point %d: payload record_id = %q, want %q", i, got, recs[i].ID)
		}
	}
}

func TestSearchReturnsRecordID(t *testing.T) {
	mock := &mockPoints{
		hits: []*pb.ScoredPoint{
			{
				Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID("n-john-1")}},
				Score: 0.91,
				Payload: map[string]*pb.Value{
					"record_id":  {Kind: &pb.Value_StringValue{StringValue: "n-john-1"}},
					"text":       {Kind: &pb.Value_StringValue{StringValue: "met at conference"}},
					"kind":       {Kind: &pb.Value_StringValue{StringValue: "note"}},
					"contact_id": {Kind: &pb.Value_StringValue{StringValue: "c-john"}},
					"created_at": {Kind: &pb.Value_IntegerValue{IntegerValue: 1770000000}},
				},
			},
		},
	}
	store := &VectorStore{points: mock, collection: "records"}

	results, err := store.Search(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.ID != "n-john-1" {
		t.Errorf("ID = %q, want the record identifier %q", got.ID, "n-john-1")
	}
	if got.Kind != "note" || got.ContactID != "c-john" || got.CreatedAt != 1770000000 {
		t.Errorf("payload not round-tripped: %+v", got)
	}
}
