package index

import (
	"context"
	"testing"
)

// stubEmbedding maps text onto a tiny deterministic vector so tests run
// without an embedding server.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r % 13)
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		v[0] = 1
		norm = 1
	}
	// chromem expects normalized vectors.
	inv := 1 / sqrt32(norm)
	for i := range v {
		v[i] *= inv
	}
	return v, nil
}

func sqrt32(x float32) float32 {
	// Newton iterations are plenty for test vectors.
	z := x
	for range 8 {
		z = (z + x/z) / 2
	}
	return z
}

func TestIndex_AddAndSearch(t *testing.T) {
	ix, err := NewInMemory(stubEmbedding)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	ctx := context.Background()
	err = ix.Add(ctx, []Entry{
		{ID: "d1:0", Content: "revenue grew strongly", Metadata: map[string]string{"doc_id": "d1"}},
		{ID: "d1:1", Content: "costs were flat", Metadata: map[string]string{"doc_id": "d1"}},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if ix.Count() != 2 {
		t.Fatalf("expected 2 indexed chunks, got %d", ix.Count())
	}

	results, err := ix.Search(ctx, "revenue grew strongly", 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].ID != "d1:0" {
		t.Errorf("expected exact text to rank first, got %s", results[0].ID)
	}
}

func TestIndex_SearchEmpty(t *testing.T) {
	ix, err := NewInMemory(stubEmbedding)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	results, err := ix.Search(context.Background(), "anything", 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results from empty index, got %v", results)
	}
}

func TestIndex_RemoveDocument(t *testing.T) {
	ix, err := NewInMemory(stubEmbedding)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()
	err = ix.Add(ctx, []Entry{
		{ID: "d1:0", Content: "keep me", Metadata: map[string]string{"doc_id": "d1"}},
		{ID: "d2:0", Content: "drop me", Metadata: map[string]string{"doc_id": "d2"}},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := ix.RemoveDocument(ctx, "d2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ix.Count() != 1 {
		t.Errorf("expected 1 chunk after removal, got %d", ix.Count())
	}
}
