package index

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

const collectionName = "chunks"

// Entry is one chunk to index: contextualized text plus lookup metadata.
type Entry struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a similarity hit.
type Result struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float32           `json:"similarity"`
}

// Index stores chunk embeddings for similarity search.
type Index struct {
	db   *chromem.DB
	coll *chromem.Collection
}

// OllamaEmbedding returns an embedding func backed by an Ollama server.
func OllamaEmbedding(baseURL, model string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOllama(model, baseURL+"/api")
}

// New opens a persistent index at path.
func New(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	return withCollection(db, embed)
}

// NewInMemory creates a non-persistent index, used in tests.
func NewInMemory(embed chromem.EmbeddingFunc) (*Index, error) {
	return withCollection(chromem.NewDB(), embed)
}

func withCollection(db *chromem.DB, embed chromem.EmbeddingFunc) (*Index, error) {
	coll, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	return &Index{db: db, coll: coll}, nil
}

// Add indexes the given entries, embedding them concurrently.
func (ix *Index) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:       e.ID,
			Content:  e.Content,
			Metadata: e.Metadata,
		})
	}
	if err := ix.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search returns up to topK entries similar to query, filtered by
// minSimilarity. An empty index returns no results.
func (ix *Index) Search(ctx context.Context, query string, topK int, minSimilarity float32) ([]Result, error) {
	count := ix.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	if topK > count {
		topK = count
	}

	hits, err := ix.coll.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	var results []Result
	for _, h := range hits {
		if h.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			ID:         h.ID,
			Content:    h.Content,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

// RemoveDocument drops every indexed chunk belonging to docID.
func (ix *Index) RemoveDocument(ctx context.Context, docID string) error {
	if err := ix.coll.Delete(ctx, map[string]string{"doc_id": docID}, nil); err != nil {
		return fmt.Errorf("delete by doc_id: %w", err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.coll.Count()
}
