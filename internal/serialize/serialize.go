package serialize

import "github.com/docseg/docseg/internal/docmodel"

// Result is the output of serializing one node: the rendered text and the
// reference ids of every leaf item the text was built from, in render order.
type Result struct {
	Text  string
	Spans []string
}

// Serializer renders a node and everything beneath it that has not been
// visited yet. Implementations mutate visited to cover every node they
// descend into, so a parent group's rendering suppresses re-serialization
// of its children at their own traversal steps.
type Serializer interface {
	Serialize(n *docmodel.Node, visited docmodel.RefSet) (Result, error)
	// ExcludedRefs returns the refs that must never be serialized or
	// visited for the document this serializer was built for.
	ExcludedRefs() docmodel.RefSet
}

// Factory builds a serializer for one document. The chunker calls it once
// per chunk operation.
type Factory func(doc *docmodel.Document) Serializer
