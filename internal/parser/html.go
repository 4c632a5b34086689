package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/docseg/docseg/internal/docmodel"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Page header/footer elements become
// furniture leaves so the serializer's exclusion policy can drop them.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	name := titleFromFilename(filename, ".html", ".htm")
	if title := findTitle(root); title != "" {
		name = title
	}
	doc := docmodel.New(name, &docmodel.Origin{Filename: filename, Mimetype: "text/html"})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				leaf := doc.AddLeaf(nil, docmodel.LabelSectionHeader, textContent(n))
				leaf.Level = level
				return
			}
			switch n.Data {
			case "script", "style", "nav":
				return
			case "header":
				if t := textContent(n); t != "" {
					doc.AddLeaf(nil, docmodel.LabelPageHeader, t)
				}
				return
			case "footer":
				if t := textContent(n); t != "" {
					doc.AddLeaf(nil, docmodel.LabelPageFooter, t)
				}
				return
			case "ul", "ol":
				appendHTMLList(doc, nil, n)
				return
			case "pre":
				if t := textContent(n); t != "" {
					doc.AddLeaf(nil, docmodel.LabelCode, t)
				}
				return
			case "p", "td", "blockquote":
				if t := textContent(n); t != "" {
					doc.AddLeaf(nil, docmodel.LabelText, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	return doc, nil
}

// appendHTMLList builds a list group from ul/ol, nesting sublists.
func appendHTMLList(doc *docmodel.Document, parent *docmodel.Node, n *html.Node) {
	group := doc.AddGroup(parent, docmodel.KindListGroup)
	group.Enumerated = n.Data == "ol"
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var own strings.Builder
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				continue
			}
			own.WriteString(textContent(c))
			own.WriteString(" ")
		}
		if t := strings.TrimSpace(own.String()); t != "" {
			doc.AddLeaf(group, docmodel.LabelListItem, t)
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				appendHTMLList(doc, group, c)
			}
		}
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
