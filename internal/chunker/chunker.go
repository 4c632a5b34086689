package chunker

import (
	"iter"
	"sort"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
	"github.com/docseg/docseg/internal/serialize"
)

// Chunk is one emitted segment. Text is never empty and ItemRefs never
// empty: a chunk without attributable items is not chunk-worthy and is
// dropped before emission.
type Chunk struct {
	Text     string           `json:"text"`
	ItemRefs []string         `json:"item_refs"`
	Headings []string         `json:"headings,omitempty"`
	Origin   *docmodel.Origin `json:"origin,omitempty"`
}

// Options controls chunking behavior.
type Options struct {
	// Delim joins headings and text in Contextualize. Defaults to "\n".
	Delim string
	// Serializer builds the per-document serializer. Defaults to the
	// markdown serializer with its standard furniture exclusions.
	Serializer serialize.Factory
}

// Hierarchical segments a document along its structure: one chunk per
// serialized leaf item or group, headings carried as breadcrumb context.
// There is no size budget — segmentation is structural only.
type Hierarchical struct {
	delim   string
	factory serialize.Factory
}

// NewHierarchical creates a chunker with the given options.
func NewHierarchical(opts Options) *Hierarchical {
	if opts.Delim == "" {
		opts.Delim = "\n"
	}
	if opts.Serializer == nil {
		opts.Serializer = serialize.NewMarkdownFactory(serialize.Options{})
	}
	return &Hierarchical{delim: opts.Delim, factory: opts.Serializer}
}

// Chunk walks doc in pre-order, groups included, and lazily yields chunks.
// Each call re-walks with fresh state, so the sequence is restartable and
// two runs over the same document produce identical output. A serializer
// failure ends the sequence with that error. The consumer may stop pulling
// at any point.
func (c *Hierarchical) Chunk(doc *docmodel.Document) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		ser := c.factory(doc)
		excluded := ser.ExcludedRefs()
		visited := make(docmodel.RefSet)
		headingByLevel := make(map[int]string)

		for item := range doc.Items() {
			if excluded.Has(item.Ref) {
				continue
			}

			// A heading-bearing leaf updates the breadcrumb: set its level,
			// drop stale deeper levels. It is consumed as context, not
			// emitted as a chunk of its own.
			if item.Heading() && !visited.Has(item.Ref) {
				visited.Add(item.Ref)
				level := item.Level
				if item.Label == docmodel.LabelTitle {
					level = 0
				}
				for l := range headingByLevel {
					if l >= level {
						delete(headingByLevel, l)
					}
				}
				if text := strings.TrimSpace(item.Text); text != "" {
					headingByLevel[level] = text
				}
				continue
			}

			if !item.Serializable() || visited.Has(item.Ref) {
				continue
			}

			res, err := ser.Serialize(item, visited)
			if err != nil {
				yield(Chunk{}, err)
				return
			}
			if res.Text == "" || len(res.Spans) == 0 {
				continue
			}

			chunk := Chunk{
				Text:     res.Text,
				ItemRefs: res.Spans,
				Headings: breadcrumb(headingByLevel),
				Origin:   doc.Origin,
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// ChunkAll collects the full chunk sequence.
func (c *Hierarchical) ChunkAll(doc *docmodel.Document) ([]Chunk, error) {
	var chunks []Chunk
	for chunk, err := range c.Chunk(doc) {
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Contextualize returns the chunk's embedding representation: breadcrumb
// headings and text joined with the configured delimiter.
func (c *Hierarchical) Contextualize(chunk Chunk) string {
	if len(chunk.Headings) == 0 {
		return chunk.Text
	}
	parts := make([]string, 0, len(chunk.Headings)+1)
	parts = append(parts, chunk.Headings...)
	parts = append(parts, chunk.Text)
	return strings.Join(parts, c.delim)
}

// JoinText concatenates chunk texts the way the extraction consumer does.
func JoinText(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	return strings.Join(texts, "\n\n")
}

// breadcrumb flattens the level map into ascending-level heading texts.
// Returns nil when no heading context is active.
func breadcrumb(byLevel map[int]string) []string {
	if len(byLevel) == 0 {
		return nil
	}
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = byLevel[l]
	}
	return out
}
