package outlinetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/leobridge/internal/outline"
)

// Basic is two top-level nodes A and B; A has one child A1.
func Basic() []outline.Entry {
	return []outline.Entry{
		{GNX: "a", Headline: "A", Body: "alpha body", Children: []outline.Entry{
			{GNX: "a1", Headline: "A1"},
		}},
		{GNX: "b", Headline: "B"},
	}
}

// Cloned places node C (with child C1) under both A and B.
func Cloned() []outline.Entry {
	return []outline.Entry{
		{GNX: "a", Headline: "A", Expanded: true, Children: []outline.Entry{
			{GNX: "a1", Headline: "A1", Marked: true},
			{GNX: "c", Headline: "C", Body: "shared", Children: []outline.Entry{
				{GNX: "c1", Headline: "C1"},
			}},
		}},
		{GNX: "b", Headline: "B", Children: []outline.Entry{
			{GNX: "c"},
		}},
	}
}

func MustBuild(t testing.TB, entries []outline.Entry) *outline.Document {
	t.Helper()
	doc, err := outline.Build("memory", entries)
	if err != nil {
		t.Fatalf("build outline: %v", err)
	}
	return doc
}

// ClonedLeo is Cloned written as a Leo XML file.
const ClonedLeo = `<?xml version="1.0" encoding="utf-8"?>
<leo_file xmlns:leo="http://leoeditor.com/namespaces/leo-python-editor/1.1" >
<leo_header file_format="2"/>
<vnodes>
<v t="a" a="E"><vh>A</vh>
<v t="a1" a="M"><vh>A1</vh></v>
<v t="c"><vh>C</vh>
<v t="c1"><vh>C1</vh></v>
</v>
</v>
<v t="b"><vh>B</vh>
<v t="c"></v>
</v>
</vnodes>
<tnodes>
<t tx="c">shared</t>
</tnodes>
</leo_file>
`

// WriteFile writes content under a fresh temp dir and returns its path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
