package parser

import (
	"strings"
	"testing"

	"github.com/docseg/docseg/internal/docmodel"
)

func TestMarkdownParse_HeadingsAndParagraphs(t *testing.T) {
	src := `# Title

Intro paragraph.

## Section One

Body of section one.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "report.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Name != "report" {
		t.Errorf("expected name %q, got %q", "report", doc.Name)
	}
	if doc.Origin == nil || doc.Origin.Mimetype != "text/markdown" {
		t.Errorf("expected markdown origin, got %+v", doc.Origin)
	}

	var nodes []*docmodel.Node
	for n := range doc.Items() {
		nodes = append(nodes, n)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}

	if nodes[0].Label != docmodel.LabelSectionHeader || nodes[0].Level != 1 || nodes[0].Text != "Title" {
		t.Errorf("node 0: expected h1 Title, got %+v", nodes[0])
	}
	if nodes[1].Label != docmodel.LabelText || nodes[1].Text != "Intro paragraph." {
		t.Errorf("node 1: expected intro paragraph, got %+v", nodes[1])
	}
	if nodes[2].Label != docmodel.LabelSectionHeader || nodes[2].Level != 2 {
		t.Errorf("node 2: expected h2, got %+v", nodes[2])
	}
	if nodes[3].Label != docmodel.LabelText {
		t.Errorf("node 3: expected text, got %+v", nodes[3])
	}
}

func TestMarkdownParse_ListBecomesGroup(t *testing.T) {
	src := `- apples
- bananas
- cherries
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "list.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var group *docmodel.Node
	items := 0
	for n := range doc.Items() {
		switch n.Kind {
		case docmodel.KindListGroup:
			group = n
		case docmodel.KindLeaf:
			if n.Label != docmodel.LabelListItem {
				t.Errorf("expected list_item leaf, got %s", n.Label)
			}
			items++
		}
	}
	if group == nil {
		t.Fatal("expected a list group")
	}
	if group.Enumerated {
		t.Error("bulleted list must not be enumerated")
	}
	if items != 3 {
		t.Errorf("expected 3 list items, got %d", items)
	}
}

func TestMarkdownParse_NestedAndOrderedLists(t *testing.T) {
	src := `1. first
2. second
   - nested one
   - nested two
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "nested.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var groups []*docmodel.Node
	for n := range doc.Items() {
		if n.Kind == docmodel.KindListGroup {
			groups = append(groups, n)
		}
	}
	if len(groups) != 2 {
		t.Fatalf("expected outer + nested list groups, got %d", len(groups))
	}
	if !groups[0].Enumerated {
		t.Error("outer list should be enumerated")
	}
	if groups[1].Enumerated {
		t.Error("nested list should not be enumerated")
	}
	if len(groups[1].Children) != 2 {
		t.Errorf("expected 2 nested items, got %d", len(groups[1].Children))
	}
}

func TestMarkdownParse_CodeBlock(t *testing.T) {
	src := "Some text.\n\n```\nfmt.Println(\"hi\")\n```\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "code.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	found := false
	for n := range doc.Items() {
		if n.Label == docmodel.LabelCode {
			found = true
			if !strings.Contains(n.Text, "fmt.Println") {
				t.Errorf("code leaf missing source, got %q", n.Text)
			}
		}
	}
	if !found {
		t.Error("expected a code leaf")
	}
}

func TestMarkdownParse_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for n := range doc.Items() {
		t.Errorf("expected no nodes, got %+v", n)
	}
}
