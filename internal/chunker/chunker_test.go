package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/docseg/docseg/internal/docmodel"
	"github.com/docseg/docseg/internal/serialize"
)

func TestChunk_SingleLeaf(t *testing.T) {
	doc := docmodel.New("doc", &docmodel.Origin{Filename: "hello.txt"})
	leaf := doc.AddLeaf(nil, docmodel.LabelText, "Hello world")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world" {
		t.Errorf("expected text %q, got %q", "Hello world", chunks[0].Text)
	}
	if len(chunks[0].ItemRefs) != 1 || chunks[0].ItemRefs[0] != leaf.Ref {
		t.Errorf("expected item refs [%s], got %v", leaf.Ref, chunks[0].ItemRefs)
	}
	if chunks[0].Origin == nil || chunks[0].Origin.Filename != "hello.txt" {
		t.Errorf("expected origin copied onto chunk, got %+v", chunks[0].Origin)
	}
}

func TestChunk_ListGroupSerializedOnce(t *testing.T) {
	doc := docmodel.New("doc", nil)
	list := doc.AddGroup(nil, docmodel.KindListGroup)
	a := doc.AddLeaf(list, docmodel.LabelListItem, "alpha")
	b := doc.AddLeaf(list, docmodel.LabelListItem, "beta")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for the list group, got %d", len(chunks))
	}
	refs := chunks[0].ItemRefs
	if len(refs) != 2 || refs[0] != a.Ref || refs[1] != b.Ref {
		t.Errorf("expected both items spanned in order, got %v", refs)
	}
	if !strings.Contains(chunks[0].Text, "alpha") || !strings.Contains(chunks[0].Text, "beta") {
		t.Errorf("expected combined rendering, got %q", chunks[0].Text)
	}
}

func TestChunk_ExcludedLeafNeverEmitted(t *testing.T) {
	doc := docmodel.New("doc", nil)
	ftr := doc.AddLeaf(nil, docmodel.LabelPageFooter, "Page 3 of 7")
	doc.AddLeaf(nil, docmodel.LabelText, "body")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	for _, ch := range chunks {
		for _, ref := range ch.ItemRefs {
			if ref == ftr.Ref {
				t.Errorf("excluded ref %s appeared in item refs", ftr.Ref)
			}
		}
		if strings.Contains(ch.Text, "Page 3 of 7") {
			t.Errorf("excluded text leaked into chunk: %q", ch.Text)
		}
	}
}

func TestChunk_EmptyDocument(t *testing.T) {
	doc := docmodel.New("empty", nil)
	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunk_AllExcludedGroupYieldsNothing(t *testing.T) {
	doc := docmodel.New("doc", nil)
	list := doc.AddGroup(nil, docmodel.KindListGroup)
	doc.AddLeaf(list, docmodel.LabelPageHeader, "Running head")
	doc.AddLeaf(list, docmodel.LabelPageFooter, "Page 1")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for all-excluded subtree, got %+v", chunks)
	}
}

func TestChunk_NoEmptyTextOrRefs(t *testing.T) {
	doc := buildFixture()
	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("fixture should produce chunks")
	}
	for i, ch := range chunks {
		if ch.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
		if len(ch.ItemRefs) == 0 {
			t.Errorf("chunk %d has no item refs", i)
		}
	}
}

func TestChunk_SpannedItemsDisjoint(t *testing.T) {
	doc := buildFixture()
	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]int)
	for i, ch := range chunks {
		for _, ref := range ch.ItemRefs {
			if prev, ok := seen[ref]; ok {
				t.Errorf("ref %s attributed to chunks %d and %d", ref, prev, i)
			}
			seen[ref] = i
		}
	}
}

func TestChunk_Idempotent(t *testing.T) {
	doc := buildFixture()
	c := NewHierarchical(Options{})

	first, err := c.ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Errorf("chunk %d text differs between runs", i)
		}
		if fmt.Sprint(first[i].ItemRefs) != fmt.Sprint(second[i].ItemRefs) {
			t.Errorf("chunk %d refs differ between runs", i)
		}
	}
}

func TestChunk_HeadingBreadcrumb(t *testing.T) {
	doc := docmodel.New("doc", nil)
	h1 := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Results")
	h1.Level = 1
	h2 := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Revenue")
	h2.Level = 2
	doc.AddLeaf(nil, docmodel.LabelText, "Revenue grew 12%.")
	h2b := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Costs")
	h2b.Level = 2
	doc.AddLeaf(nil, docmodel.LabelText, "Costs were flat.")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (headings are context, not chunks), got %d", len(chunks))
	}

	want0 := []string{"Results", "Revenue"}
	if fmt.Sprint(chunks[0].Headings) != fmt.Sprint(want0) {
		t.Errorf("chunk 0 headings: expected %v, got %v", want0, chunks[0].Headings)
	}
	// A new same-level heading replaces the old one and clears deeper levels.
	want1 := []string{"Results", "Costs"}
	if fmt.Sprint(chunks[1].Headings) != fmt.Sprint(want1) {
		t.Errorf("chunk 1 headings: expected %v, got %v", want1, chunks[1].Headings)
	}
}

func TestChunk_NewShallowHeadingClearsDeeperLevels(t *testing.T) {
	doc := docmodel.New("doc", nil)
	h1 := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Intro")
	h1.Level = 1
	h3 := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Detail")
	h3.Level = 3
	doc.AddLeaf(nil, docmodel.LabelText, "deep text")
	next := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Methods")
	next.Level = 1
	doc.AddLeaf(nil, docmodel.LabelText, "shallow text")

	chunks, err := NewHierarchical(Options{}).ChunkAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if fmt.Sprint(chunks[1].Headings) != fmt.Sprint([]string{"Methods"}) {
		t.Errorf("stale deep heading survived: %v", chunks[1].Headings)
	}
}

func TestChunk_EarlyTermination(t *testing.T) {
	doc := buildFixture()
	pulled := 0
	for _, err := range NewHierarchical(Options{}).Chunk(doc) {
		if err != nil {
			t.Fatal(err)
		}
		pulled++
		if pulled == 1 {
			break
		}
	}
	if pulled != 1 {
		t.Errorf("expected to stop after 1 chunk, pulled %d", pulled)
	}
}

func TestChunk_SerializerErrorPropagated(t *testing.T) {
	doc := docmodel.New("doc", nil)
	doc.AddLeaf(nil, docmodel.LabelText, "content")

	boom := errors.New("dangling reference")
	c := NewHierarchical(Options{
		Serializer: func(*docmodel.Document) serialize.Serializer {
			return failingSerializer{err: boom}
		},
	})

	_, err := c.ChunkAll(doc)
	if !errors.Is(err, boom) {
		t.Errorf("expected serializer error propagated unchanged, got %v", err)
	}
}

func TestContextualize(t *testing.T) {
	c := NewHierarchical(Options{})
	ch := Chunk{Text: "body", Headings: []string{"A", "B"}}
	if got := c.Contextualize(ch); got != "A\nB\nbody" {
		t.Errorf("expected headings joined with newline, got %q", got)
	}

	pipe := NewHierarchical(Options{Delim: " | "})
	if got := pipe.Contextualize(ch); got != "A | B | body" {
		t.Errorf("expected custom delimiter, got %q", got)
	}

	bare := Chunk{Text: "body"}
	if got := c.Contextualize(bare); got != "body" {
		t.Errorf("expected bare text without headings, got %q", got)
	}
}

func TestJoinText(t *testing.T) {
	got := JoinText([]Chunk{{Text: "a"}, {Text: "b"}})
	if got != "a\n\nb" {
		t.Errorf("expected chunks joined with blank line, got %q", got)
	}
}

// buildFixture covers leaves, lists, nested lists, furniture and headings.
func buildFixture() *docmodel.Document {
	doc := docmodel.New("fixture", &docmodel.Origin{Filename: "fixture.md", Mimetype: "text/markdown"})
	doc.AddLeaf(nil, docmodel.LabelPageHeader, "Fixture Co.")
	doc.AddLeaf(nil, docmodel.LabelTitle, "Annual Report")
	doc.AddLeaf(nil, docmodel.LabelText, "Opening paragraph.")
	h := doc.AddLeaf(nil, docmodel.LabelSectionHeader, "Summary")
	h.Level = 1
	list := doc.AddGroup(nil, docmodel.KindListGroup)
	doc.AddLeaf(list, docmodel.LabelListItem, "one")
	nested := doc.AddGroup(list, docmodel.KindListGroup)
	doc.AddLeaf(nested, docmodel.LabelListItem, "one-a")
	doc.AddLeaf(nil, docmodel.LabelText, "Closing paragraph.")
	doc.AddLeaf(nil, docmodel.LabelPageFooter, "Page 1 of 1")
	return doc
}

type failingSerializer struct {
	err error
}

func (f failingSerializer) Serialize(*docmodel.Node, docmodel.RefSet) (serialize.Result, error) {
	return serialize.Result{}, f.err
}

func (f failingSerializer) ExcludedRefs() docmodel.RefSet {
	return make(docmodel.RefSet)
}
