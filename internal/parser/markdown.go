package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	doc := docmodel.New(
		titleFromFilename(filename, ".md", ".markdown"),
		&docmodel.Origin{Filename: filename, Mimetype: "text/markdown"},
	)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		appendBlock(doc, nil, n, src)
	}

	return doc, nil
}

// appendBlock maps one goldmark block to docmodel nodes under parent.
func appendBlock(doc *docmodel.Document, parent *docmodel.Node, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Heading:
		leaf := doc.AddLeaf(parent, docmodel.LabelSectionHeader, string(node.Text(src)))
		leaf.Level = node.Level
	case *ast.List:
		group := doc.AddGroup(parent, docmodel.KindListGroup)
		group.Enumerated = node.IsOrdered()
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			appendListItem(doc, group, item, src)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if t := blockLines(n, src); t != "" {
			doc.AddLeaf(parent, docmodel.LabelCode, t)
		}
	default:
		if t := extractText(n, src); t != "" {
			doc.AddLeaf(parent, docmodel.LabelText, t)
		}
	}
}

// appendListItem emits the item's own text as a list_item leaf and nested
// lists as child list groups.
func appendListItem(doc *docmodel.Document, group *docmodel.Node, item ast.Node, src []byte) {
	var textParts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if nested, ok := c.(*ast.List); ok {
			if t := strings.Join(textParts, " "); t != "" {
				doc.AddLeaf(group, docmodel.LabelListItem, t)
				textParts = nil
			}
			child := doc.AddGroup(group, docmodel.KindListGroup)
			child.Enumerated = nested.IsOrdered()
			for gi := nested.FirstChild(); gi != nil; gi = gi.NextSibling() {
				appendListItem(doc, child, gi, src)
			}
			continue
		}
		if t := extractText(c, src); t != "" {
			textParts = append(textParts, t)
		}
	}
	if t := strings.Join(textParts, " "); t != "" {
		doc.AddLeaf(group, docmodel.LabelListItem, t)
	}
}

// blockLines returns the raw source lines of a code block.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
