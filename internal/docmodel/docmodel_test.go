package docmodel

import "testing"

func TestItems_PreOrderWithGroups(t *testing.T) {
	doc := New("doc", nil)
	a := doc.AddLeaf(nil, LabelText, "a")
	g := doc.AddGroup(nil, KindListGroup)
	b := doc.AddLeaf(g, LabelListItem, "b")
	c := doc.AddLeaf(g, LabelListItem, "c")
	d := doc.AddLeaf(nil, LabelText, "d")

	type step struct {
		ref   string
		depth int
	}
	want := []step{
		{a.Ref, 0},
		{g.Ref, 0},
		{b.Ref, 1},
		{c.Ref, 1},
		{d.Ref, 0},
	}

	var got []step
	for n, depth := range doc.Items() {
		got = append(got, step{n.Ref, depth})
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestItems_EmptyDocument(t *testing.T) {
	doc := New("empty", nil)
	count := 0
	for range doc.Items() {
		count++
	}
	if count != 0 {
		t.Errorf("expected 0 items, got %d", count)
	}
}

func TestItems_EarlyTermination(t *testing.T) {
	doc := New("doc", nil)
	for range 10 {
		doc.AddLeaf(nil, LabelText, "x")
	}

	seen := 0
	for range doc.Items() {
		seen++
		if seen == 3 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("expected to stop after 3 items, saw %d", seen)
	}
}

func TestRefAssignment_StableAndDistinct(t *testing.T) {
	doc := New("doc", nil)
	l0 := doc.AddLeaf(nil, LabelText, "x")
	g0 := doc.AddGroup(nil, KindGroup)
	l1 := doc.AddLeaf(g0, LabelText, "y")

	if l0.Ref != "#/texts/0" {
		t.Errorf("expected #/texts/0, got %s", l0.Ref)
	}
	if g0.Ref != "#/groups/0" {
		t.Errorf("expected #/groups/0, got %s", g0.Ref)
	}
	if l1.Ref != "#/texts/1" {
		t.Errorf("expected #/texts/1, got %s", l1.Ref)
	}
}

func TestSerializable(t *testing.T) {
	cases := []struct {
		kind NodeKind
		want bool
	}{
		{KindLeaf, true},
		{KindListGroup, true},
		{KindInlineGroup, true},
		{KindGroup, false},
	}
	for _, c := range cases {
		n := &Node{Kind: c.kind}
		if n.Serializable() != c.want {
			t.Errorf("kind %s: expected serializable=%v", c.kind, c.want)
		}
	}
}

func TestHeading(t *testing.T) {
	h := &Node{Kind: KindLeaf, Label: LabelSectionHeader}
	if !h.Heading() {
		t.Error("section_header leaf should be a heading")
	}
	txt := &Node{Kind: KindLeaf, Label: LabelText}
	if txt.Heading() {
		t.Error("text leaf should not be a heading")
	}
}

func TestRefSet(t *testing.T) {
	s := NewRefSet("#/texts/0")
	if !s.Has("#/texts/0") {
		t.Error("expected membership for #/texts/0")
	}
	if s.Has("#/texts/1") {
		t.Error("unexpected membership for #/texts/1")
	}
	s.Add("#/texts/1")
	if !s.Has("#/texts/1") {
		t.Error("expected membership after Add")
	}
}
