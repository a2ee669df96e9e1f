package bridge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"pgregory.net/rapid"

	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/testutil/outlinetest"
	"github.com/danmuck/leobridge/internal/testutil/testlog"
)

// outlineGen draws random outlines in which finished subtrees may be cloned
// into later slots. Only finished nodes are reused, so no node becomes its
// own ancestor.
func outlineGen() *rapid.Generator[[]outline.Entry] {
	return rapid.Custom(func(t *rapid.T) []outline.Entry {
		var done []string
		next := 0
		var build func(depth int) outline.Entry
		build = func(depth int) outline.Entry {
			if len(done) > 0 && rapid.Bool().Draw(t, "clone") {
				return outline.Entry{GNX: rapid.SampledFrom(done).Draw(t, "clone_of")}
			}
			gnx := fmt.Sprintf("n%d", next)
			next++
			e := outline.Entry{
				GNX:      gnx,
				Headline: "H " + gnx,
				Body:     rapid.SampledFrom([]string{"", "body", "multi\nline"}).Draw(t, "body"),
				Marked:   rapid.Bool().Draw(t, "marked"),
			}
			if depth < 4 {
				for range rapid.IntRange(0, 3).Draw(t, "children") {
					e.Children = append(e.Children, build(depth+1))
				}
			}
			done = append(done, gnx)
			return e
		}
		top := rapid.IntRange(1, 4).Draw(t, "top")
		out := make([]outline.Entry, 0, top)
		for range top {
			out = append(out, build(0))
		}
		return out
	})
}

func newCodecFor(doc *outline.Document) (*IdentityCache, *Codec) {
	cache := BuildIdentityCache(doc.UniqueNodes())
	return cache, NewCodec(doc, cache)
}

func TestCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc, err := outline.Build("rapid", outlineGen().Draw(t, "outline"))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		cache, codec := newCodecFor(doc)
		size := cache.Len()

		for p := range doc.AllPositions() {
			ap, err := codec.Encode(p)
			if err != nil {
				t.Fatalf("encode %s: %v", p, err)
			}
			if ap.Level != p.Level() || len(ap.Stack) != p.Level() {
				t.Fatalf("level mismatch for %s: %+v", p, ap)
			}
			got, err := codec.Decode(ap)
			if err != nil {
				t.Fatalf("decode %s: %v", p, err)
			}
			if !got.Equal(p) {
				t.Fatalf("round trip %s -> %s", p, got)
			}
		}
		if cache.Len() != size {
			t.Fatalf("cache grew from %d to %d", size, cache.Len())
		}
		if _, err := Verify(doc, cache, codec); err != nil {
			t.Fatalf("verify: %v", err)
		}
	})
}

func TestCodecSparseReencode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc, err := outline.Build("rapid", outlineGen().Draw(t, "outline"))
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		_, codec := newCodecFor(doc)

		for p := range doc.AllPositions() {
			first, _ := codec.Encode(p)
			back, err := codec.Decode(first)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			second, _ := codec.Encode(back)
			a, _ := json.Marshal(first)
			b, _ := json.Marshal(second)
			if string(a) != string(b) {
				t.Fatalf("re-encode differs:\n%s\n%s", a, b)
			}
		}
	})
}

func TestEncodeClonedOutlineFlags(t *testing.T) {
	testlog.Start(t)

	doc := outlinetest.MustBuild(t, outlinetest.Cloned())
	_, codec := newCodecFor(doc)

	p1, _ := doc.FindPath([]string{"a", "c"})
	p2, _ := doc.FindPath([]string{"b", "c"})
	ap1, err := codec.Encode(p1)
	if err != nil {
		t.Fatalf("encode p1: %v", err)
	}
	ap2, err := codec.Encode(p2)
	if err != nil {
		t.Fatalf("encode p2: %v", err)
	}
	if ap1.GNX != ap2.GNX || !ap1.Cloned || !ap2.Cloned {
		t.Fatalf("both occurrences must share gnx and be cloned: %+v %+v", ap1, ap2)
	}
	if ap1.ChildIndex != 1 || ap2.ChildIndex != 0 {
		t.Fatalf("unexpected child indexes %d %d", ap1.ChildIndex, ap2.ChildIndex)
	}
	if ap1.Stack[0].GNX != "a" || ap2.Stack[0].GNX != "b" || ap2.Stack[0].Headline != "B" {
		t.Fatalf("unexpected stacks %+v %+v", ap1.Stack, ap2.Stack)
	}
	if !ap1.HasBody || !ap1.HasChildren {
		t.Fatalf("c has body and children: %+v", ap1)
	}

	a, _ := codec.Encode(doc.TopLevel()[0])
	if !a.Expanded || !a.Selected || a.Marked {
		t.Fatalf("unexpected flags for a: %+v", a)
	}
}

func TestEncodeOmitsFalsePredicates(t *testing.T) {
	testlog.Start(t)

	doc := outlinetest.MustBuild(t, outlinetest.Basic())
	_, codec := newCodecFor(doc)

	b, err := codec.Encode(doc.TopLevel()[1])
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"hasBody", "hasChildren", "cloned", "dirty", "expanded", "marked", "selected"} {
		if strings.Contains(string(raw), `"`+key+`"`) {
			t.Fatalf("false predicate %q present in %s", key, raw)
		}
	}
	if !strings.Contains(string(raw), `"stack":[]`) {
		t.Fatalf("top-level stack must encode as an empty array: %s", raw)
	}
}

func TestCodecErrors(t *testing.T) {
	testlog.Start(t)

	doc := outlinetest.MustBuild(t, outlinetest.Basic())
	_, codec := newCodecFor(doc)

	if _, err := codec.Encode(outline.Position{GNX: "zz"}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
	if _, err := codec.Decode(ArchivedPosition{GNX: "zz"}); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
	bad := ArchivedPosition{GNX: "a1", Stack: []StackEntry{{GNX: "ghost"}}}
	if _, err := codec.Decode(bad); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier for stack entry, got %v", err)
	}
}
