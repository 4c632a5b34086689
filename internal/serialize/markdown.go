package serialize

import (
	"fmt"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
)

// Options controls markdown serialization policy.
type Options struct {
	// KeepFurniture includes page headers/footers instead of excluding them.
	KeepFurniture bool
}

// Markdown renders document nodes as markdown text. The exclusion policy
// is computed once at construction and stays fixed for the document.
type Markdown struct {
	doc      *docmodel.Document
	opts     Options
	excluded docmodel.RefSet
}

// NewMarkdown builds a markdown serializer for doc.
func NewMarkdown(doc *docmodel.Document, opts Options) *Markdown {
	m := &Markdown{doc: doc, opts: opts, excluded: make(docmodel.RefSet)}
	if !opts.KeepFurniture {
		for n := range doc.Items() {
			if n.Kind == docmodel.KindLeaf && n.Label.Furniture() {
				m.excluded.Add(n.Ref)
			}
		}
	}
	return m
}

// NewMarkdownFactory returns a Factory with fixed options.
func NewMarkdownFactory(opts Options) Factory {
	return func(doc *docmodel.Document) Serializer {
		return NewMarkdown(doc, opts)
	}
}

// ExcludedRefs returns the furniture refs for this document.
func (m *Markdown) ExcludedRefs() docmodel.RefSet {
	return m.excluded
}

// Serialize renders n and marks every node it descends into as visited.
// Passing a plain group is a contract violation: groups without a
// rendering of their own are traversed child by child, never serialized.
func (m *Markdown) Serialize(n *docmodel.Node, visited docmodel.RefSet) (Result, error) {
	if n == nil {
		return Result{}, fmt.Errorf("serialize: nil node")
	}
	if !n.Serializable() {
		return Result{}, fmt.Errorf("serialize: %s %s is not serializable", n.Kind, n.Ref)
	}

	var res Result
	switch n.Kind {
	case docmodel.KindLeaf:
		visited.Add(n.Ref)
		res.Text = renderLeaf(n)
		res.Spans = append(res.Spans, n.Ref)
	case docmodel.KindListGroup:
		var lines []string
		m.renderList(n, visited, 0, &lines, &res.Spans)
		res.Text = strings.Join(lines, "\n")
	case docmodel.KindInlineGroup:
		var parts []string
		m.renderInline(n, visited, &parts, &res.Spans)
		res.Text = strings.Join(parts, " ")
	}
	res.Text = strings.TrimRight(res.Text, "\n")
	return res, nil
}

func renderLeaf(n *docmodel.Node) string {
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return ""
	}
	switch n.Label {
	case docmodel.LabelTitle:
		return "# " + text
	case docmodel.LabelSectionHeader:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + text
	case docmodel.LabelListItem:
		return "- " + text
	case docmodel.LabelCode:
		return "```\n" + n.Text + "\n```"
	default:
		return text
	}
}

// renderList emits one line per list entry, indenting nested lists.
func (m *Markdown) renderList(g *docmodel.Node, visited docmodel.RefSet, depth int, lines *[]string, spans *[]string) {
	visited.Add(g.Ref)
	indent := strings.Repeat("  ", depth)
	ordinal := 0
	for _, c := range g.Children {
		if m.excluded.Has(c.Ref) {
			continue
		}
		switch c.Kind {
		case docmodel.KindListGroup:
			m.renderList(c, visited, depth+1, lines, spans)
		case docmodel.KindInlineGroup:
			var parts []string
			m.renderInline(c, visited, &parts, spans)
			if text := strings.Join(parts, " "); text != "" {
				ordinal++
				*lines = append(*lines, indent+marker(g, ordinal)+text)
			}
		case docmodel.KindLeaf:
			visited.Add(c.Ref)
			text := strings.TrimSpace(c.Text)
			if text == "" {
				continue
			}
			ordinal++
			*lines = append(*lines, indent+marker(g, ordinal)+text)
			*spans = append(*spans, c.Ref)
		default:
			// Plain groups inside a list carry no rendering of their own;
			// their children surface at their own traversal steps.
		}
	}
}

func marker(g *docmodel.Node, ordinal int) string {
	if g.Enumerated {
		return fmt.Sprintf("%d. ", ordinal)
	}
	return "- "
}

// renderInline collects the text of inline runs, space-joined by the caller.
func (m *Markdown) renderInline(g *docmodel.Node, visited docmodel.RefSet, parts *[]string, spans *[]string) {
	visited.Add(g.Ref)
	for _, c := range g.Children {
		if m.excluded.Has(c.Ref) {
			continue
		}
		switch c.Kind {
		case docmodel.KindInlineGroup, docmodel.KindListGroup:
			m.renderInline(c, visited, parts, spans)
		case docmodel.KindLeaf:
			visited.Add(c.Ref)
			text := strings.TrimSpace(c.Text)
			if text == "" {
				continue
			}
			*parts = append(*parts, text)
			*spans = append(*spans, c.Ref)
		}
	}
}
