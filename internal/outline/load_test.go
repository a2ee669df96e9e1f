package outline_test

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/testutil/outlinetest"
)

const clonedYAML = `nodes:
  - gnx: a
    headline: A
    expanded: true
    children:
      - gnx: a1
        headline: A1
        marked: true
      - gnx: c
        headline: C
        body: shared
        children:
          - gnx: c1
            headline: C1
  - gnx: b
    headline: B
    children:
      - gnx: c
`

// shape flattens a document into comparable lines.
func shape(doc *outline.Document) []string {
	var out []string
	for p := range doc.AllPositions() {
		n, _ := doc.Node(p.GNX)
		out = append(out, fmt.Sprintf("%s h=%q b=%q clone=%v exp=%v mark=%v",
			p, n.Headline, n.Body, n.IsCloned(), n.IsExpanded(), n.IsMarked()))
	}
	return out
}

func writeSQLite(t *testing.T, currentPosition string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloned.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE vnodes (gnx TEXT PRIMARY KEY, head TEXT, body TEXT, children TEXT, parents TEXT, iconVal INTEGER, statusBits INTEGER, ua TEXT)`,
		`CREATE TABLE extra_infos (name TEXT PRIMARY KEY, value TEXT)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	rows := []struct {
		gnx, head, body, children string
		status                    int
	}{
		{outline.HiddenRootGNX, "", "", "a b", 0},
		{"a", "A", "", "a1 c", 0x04},
		{"a1", "A1", "", "", 0x08},
		{"c", "C", "shared", "c1", 0},
		{"c1", "C1", "", "", 0},
		{"b", "B", "", "c", 0},
	}
	for _, r := range rows {
		if _, err := db.Exec(
			`INSERT INTO vnodes (gnx, head, body, children, statusBits) VALUES (?, ?, ?, ?, ?)`,
			r.gnx, r.head, r.body, r.children, r.status,
		); err != nil {
			t.Fatalf("insert %s: %v", r.gnx, err)
		}
	}
	if currentPosition != "" {
		if _, err := db.Exec(`INSERT INTO extra_infos (name, value) VALUES ('current_position', ?)`, currentPosition); err != nil {
			t.Fatalf("insert current position: %v", err)
		}
	}
	return path
}

func TestLoadersAgreeOnClonedOutline(t *testing.T) {
	want := shape(outlinetest.MustBuild(t, outlinetest.Cloned()))

	rawJSON, err := json.Marshal(map[string]any{"nodes": outlinetest.Cloned()})
	if err != nil {
		t.Fatalf("marshal json fixture: %v", err)
	}
	paths := map[string]string{
		"leo":    outlinetest.WriteFile(t, "cloned.leo", outlinetest.ClonedLeo),
		"yaml":   outlinetest.WriteFile(t, "cloned.yaml", clonedYAML),
		"json":   outlinetest.WriteFile(t, "cloned.json", string(rawJSON)),
		"sqlite": writeSQLite(t, ""),
	}

	for kind, path := range paths {
		doc, err := outline.Open(path)
		if err != nil {
			t.Fatalf("%s: open: %v", kind, err)
		}
		if got := shape(doc); !slices.Equal(got, want) {
			t.Fatalf("%s: shape mismatch:\n got %v\nwant %v", kind, got, want)
		}
		if doc.Path != path {
			t.Fatalf("%s: unexpected path %q", kind, doc.Path)
		}
	}
}

func TestLoadSQLiteCurrentPosition(t *testing.T) {
	doc, err := outline.Open(writeSQLite(t, "b,c"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := doc.Selected().String(); got != "b:1/c:0" {
		t.Fatalf("unexpected selection %s", got)
	}
}

func TestLoadLeoSelectionFlag(t *testing.T) {
	leo := strings.Replace(outlinetest.ClonedLeo, `<v t="c1">`, `<v t="c1" a="V">`, 1)
	doc, err := outline.Open(outlinetest.WriteFile(t, "sel.leo", leo))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := doc.Selected().String(); got != "a:0/c:1/c1:0" {
		t.Fatalf("unexpected selection %s", got)
	}
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	path := outlinetest.WriteFile(t, "notes.txt", "hello")
	if _, err := outline.Open(path); !errors.Is(err, outline.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := outline.Open(filepath.Join(t.TempDir(), "missing.leo")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
