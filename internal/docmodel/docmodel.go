package docmodel

import (
	"fmt"
	"iter"
)

// NodeKind discriminates the closed set of tree node variants.
type NodeKind int

const (
	// KindLeaf is a content item with directly renderable text.
	KindLeaf NodeKind = iota
	// KindListGroup aggregates list items into one serialization unit.
	KindListGroup
	// KindInlineGroup aggregates inline runs into one serialization unit.
	KindInlineGroup
	// KindGroup is a structural container that is never serialized directly;
	// its children are considered individually during traversal.
	KindGroup
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindListGroup:
		return "list_group"
	case KindInlineGroup:
		return "inline_group"
	case KindGroup:
		return "group"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label classifies leaf content items.
type Label string

const (
	LabelText          Label = "text"
	LabelTitle         Label = "title"
	LabelSectionHeader Label = "section_header"
	LabelListItem      Label = "list_item"
	LabelCaption       Label = "caption"
	LabelCode          Label = "code"
	LabelFootnote      Label = "footnote"
	LabelPageHeader    Label = "page_header"
	LabelPageFooter    Label = "page_footer"
)

// Furniture reports whether the label marks repeated page furniture
// rather than body content.
func (l Label) Furniture() bool {
	return l == LabelPageHeader || l == LabelPageFooter
}

// Node is a single node in the document tree. Leaves carry text; groups
// carry children. Ref is stable for the lifetime of the document and is
// the identity used by visited/excluded bookkeeping.
type Node struct {
	Ref   string
	Kind  NodeKind
	Label Label

	Text       string // leaf content
	Level      int    // heading level for title/section_header leaves
	Enumerated bool   // numbered list group
	Page       int    // source page, 0 if not applicable

	Children []*Node
}

// Serializable reports whether this node variant may be handed to the
// serializer directly. Plain groups never are.
func (n *Node) Serializable() bool {
	return n.Kind == KindLeaf || n.Kind == KindListGroup || n.Kind == KindInlineGroup
}

// Heading reports whether this leaf carries heading text that updates the
// breadcrumb context.
func (n *Node) Heading() bool {
	return n.Kind == KindLeaf && (n.Label == LabelTitle || n.Label == LabelSectionHeader)
}

// Origin is opaque provenance metadata, copied unchanged onto every chunk
// derived from the document.
type Origin struct {
	Filename   string `json:"filename"`
	Mimetype   string `json:"mimetype"`
	BinaryHash string `json:"binary_hash,omitempty"`
}

// Document owns a node tree rooted at Body.
type Document struct {
	Name   string
	Origin *Origin
	Body   *Node

	ntexts  int
	ngroups int
}

// New creates an empty document with a body group root.
func New(name string, origin *Origin) *Document {
	return &Document{
		Name:   name,
		Origin: origin,
		Body:   &Node{Ref: "#/body", Kind: KindGroup},
	}
}

// AddLeaf appends a leaf item under parent and assigns its reference id.
// A nil parent means the document body.
func (d *Document) AddLeaf(parent *Node, label Label, text string) *Node {
	if parent == nil {
		parent = d.Body
	}
	n := &Node{
		Ref:   fmt.Sprintf("#/texts/%d", d.ntexts),
		Kind:  KindLeaf,
		Label: label,
		Text:  text,
	}
	d.ntexts++
	parent.Children = append(parent.Children, n)
	return n
}

// AddGroup appends a group node under parent and assigns its reference id.
// A nil parent means the document body.
func (d *Document) AddGroup(parent *Node, kind NodeKind) *Node {
	if parent == nil {
		parent = d.Body
	}
	n := &Node{
		Ref:  fmt.Sprintf("#/groups/%d", d.ngroups),
		Kind: kind,
	}
	d.ngroups++
	parent.Children = append(parent.Children, n)
	return n
}

// Items iterates the tree in pre-order, groups included, yielding each
// node with its nesting depth (body children are depth 0). Iteration is
// lazy and stops as soon as the consumer does.
func (d *Document) Items() iter.Seq2[*Node, int] {
	return func(yield func(*Node, int) bool) {
		if d == nil || d.Body == nil {
			return
		}
		var walk func(n *Node, depth int) bool
		walk = func(n *Node, depth int) bool {
			for _, c := range n.Children {
				if !yield(c, depth) {
					return false
				}
				if !walk(c, depth+1) {
					return false
				}
			}
			return true
		}
		walk(d.Body, 0)
	}
}

// RefSet is a set of node reference ids.
type RefSet map[string]struct{}

// NewRefSet builds a set from the given refs.
func NewRefSet(refs ...string) RefSet {
	s := make(RefSet, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s RefSet) Has(ref string) bool {
	_, ok := s[ref]
	return ok
}

// Add inserts a ref.
func (s RefSet) Add(ref string) {
	s[ref] = struct{}{}
}
