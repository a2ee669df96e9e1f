package outline_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/testutil/outlinetest"
)

func collect(doc *outline.Document) []string {
	var out []string
	for p := range doc.AllPositions() {
		out = append(out, p.String())
	}
	return out
}

func TestAllPositionsVisitsEveryCloneOccurrence(t *testing.T) {
	doc := outlinetest.MustBuild(t, outlinetest.Cloned())

	want := []string{
		"a:0",
		"a:0/a1:0",
		"a:0/c:1",
		"a:0/c:1/c1:0",
		"b:1",
		"b:1/c:0",
		"b:1/c:0/c1:0",
	}
	if got := collect(doc); !slices.Equal(got, want) {
		t.Fatalf("unexpected positions:\n got %v\nwant %v", got, want)
	}
	if doc.Len() != 5 {
		t.Fatalf("expected 5 unique nodes, got %d", doc.Len())
	}

	c, _ := doc.Node("c")
	if !c.IsCloned() {
		t.Fatalf("c has two parents and must be cloned")
	}
	c1, _ := doc.Node("c1")
	if c1.IsCloned() {
		t.Fatalf("c1 has one parent link")
	}
}

func TestUniqueNodesFirstAppearanceOrder(t *testing.T) {
	doc := outlinetest.MustBuild(t, outlinetest.Cloned())
	var got []string
	for _, n := range doc.UniqueNodes() {
		got = append(got, n.GNX)
	}
	if !slices.Equal(got, []string{"a", "a1", "c", "c1", "b"}) {
		t.Fatalf("unexpected unique order %v", got)
	}
}

func TestChildrenParentAndValidity(t *testing.T) {
	doc := outlinetest.MustBuild(t, outlinetest.Basic())
	top := doc.TopLevel()
	if len(top) != 2 || top[0].GNX != "a" || top[1].GNX != "b" {
		t.Fatalf("unexpected top level %v", top)
	}

	kids, err := doc.Children(top[0])
	if err != nil || len(kids) != 1 || kids[0].GNX != "a1" {
		t.Fatalf("unexpected children %v err=%v", kids, err)
	}
	leaf, err := doc.Children(top[1])
	if err != nil || len(leaf) != 0 {
		t.Fatalf("expected no children for b, got %v err=%v", leaf, err)
	}

	parent, ok, err := doc.Parent(kids[0])
	if err != nil || !ok || !parent.Equal(top[0]) {
		t.Fatalf("unexpected parent %s ok=%v err=%v", parent, ok, err)
	}
	if _, ok, err := doc.Parent(top[1]); err != nil || ok {
		t.Fatalf("top-level parent should be absent, ok=%v err=%v", ok, err)
	}

	stale := outline.Position{GNX: "a1", ChildIndex: 3, Stack: []outline.Frame{{GNX: "a"}}}
	if doc.IsValid(stale) {
		t.Fatalf("stale child index accepted")
	}
	if _, err := doc.NodeAt(stale); !errors.Is(err, outline.ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestMutatorsMarkDirty(t *testing.T) {
	doc := outlinetest.MustBuild(t, outlinetest.Basic())
	a := doc.TopLevel()[0]

	if doc.Changed() {
		t.Fatalf("fresh document reports changes")
	}
	if err := doc.SetHeadline(a, "A renamed"); err != nil {
		t.Fatalf("set headline: %v", err)
	}
	n, _ := doc.Node("a")
	if n.Headline != "A renamed" || !n.IsDirty() || !doc.Changed() {
		t.Fatalf("headline edit not applied: %+v", n)
	}

	if err := doc.SetBody("b", "new body"); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if b, _ := doc.Node("b"); !b.IsDirty() || !b.HasBody() {
		t.Fatalf("body edit not applied")
	}
	if err := doc.SetBody("missing", "x"); !errors.Is(err, outline.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}

	if err := doc.Expand(a); err != nil || !n.IsExpanded() {
		t.Fatalf("expand failed: %v", err)
	}
	if err := doc.Contract(a); err != nil || n.IsExpanded() {
		t.Fatalf("contract failed: %v", err)
	}
}

func TestSelectionDefaultsAndCopies(t *testing.T) {
	doc := outlinetest.MustBuild(t, outlinetest.Cloned())
	sel := doc.Selected()
	if sel.GNX != "a" || sel.Level() != 0 {
		t.Fatalf("expected first top-level selection, got %s", sel)
	}

	target, ok := doc.FindPath([]string{"b", "c", "c1"})
	if !ok || target.String() != "b:1/c:0/c1:0" {
		t.Fatalf("find path: %s ok=%v", target, ok)
	}
	if err := doc.Select(target); err != nil {
		t.Fatalf("select: %v", err)
	}
	got := doc.Selected()
	got.Stack[0].GNX = "mutated"
	if !doc.Selected().Equal(target) {
		t.Fatalf("Selected leaked internal storage")
	}
	if err := doc.Select(outline.Position{GNX: "zz"}); err == nil {
		t.Fatalf("selecting an unknown position must fail")
	}
}

func TestBuildRejectsBadEntries(t *testing.T) {
	if _, err := outline.Build("x", []outline.Entry{{Headline: "no gnx"}}); !errors.Is(err, outline.ErrMissingGNX) {
		t.Fatalf("expected ErrMissingGNX, got %v", err)
	}
	cyclic := []outline.Entry{{GNX: "x", Children: []outline.Entry{{GNX: "y", Children: []outline.Entry{{GNX: "x"}}}}}}
	if _, err := outline.Build("x", cyclic); !errors.Is(err, outline.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if _, err := outline.Build("x", []outline.Entry{{GNX: outline.HiddenRootGNX}}); err == nil {
		t.Fatalf("hidden root gnx must be reserved")
	}
}

func TestBuildSelectedFlag(t *testing.T) {
	doc := outlinetest.MustBuild(t, []outline.Entry{
		{GNX: "a", Children: []outline.Entry{{GNX: "a1", Selected: true}}},
	})
	if got := doc.Selected().String(); got != "a:0/a1:0" {
		t.Fatalf("unexpected selection %s", got)
	}
}
