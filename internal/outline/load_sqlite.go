package outline

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Leo vnode status bits as stored in the statusBits column.
const (
	statusExpanded = 0x04
	statusMarked   = 0x08
	statusSelected = 0x20
)

type leoRow struct {
	head     string
	body     string
	children []string
	status   int64
}

// LoadSQLite reads a Leo sqlite outline: one vnodes row per unique node with
// space separated child gnxs, rooted at HiddenRootGNX.
func LoadSQLite(path string) (*Document, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("outline load failed (%s): %w", path, err)
	}
	defer db.Close()

	rows, err := readLeoRows(db)
	if err != nil {
		return nil, fmt.Errorf("outline load failed (%s): %w", path, err)
	}
	root, ok := rows[HiddenRootGNX]
	if !ok {
		return nil, fmt.Errorf("outline parse failed (%s): missing %s row", path, HiddenRootGNX)
	}

	expanded := make(map[string]bool, len(rows))
	entries := make([]Entry, 0, len(root.children))
	for _, gnx := range root.children {
		e, err := rowEntry(rows, gnx, expanded)
		if err != nil {
			return nil, fmt.Errorf("outline parse failed (%s): %w", path, err)
		}
		entries = append(entries, e)
	}

	doc, err := Build(path, entries)
	if err != nil {
		return nil, err
	}
	if p, ok := currentPosition(db, doc); ok {
		doc.selected = p
	}
	return doc, nil
}

func readLeoRows(db *sql.DB) (map[string]leoRow, error) {
	rs, err := db.Query(`SELECT gnx, head, body, children, statusBits FROM vnodes`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	out := make(map[string]leoRow)
	for rs.Next() {
		var (
			gnx                  string
			head, body, children sql.NullString
			status               sql.NullInt64
		)
		if err := rs.Scan(&gnx, &head, &body, &children, &status); err != nil {
			return nil, err
		}
		out[gnx] = leoRow{
			head:     head.String,
			body:     body.String,
			children: strings.Fields(children.String),
			status:   status.Int64,
		}
	}
	return out, rs.Err()
}

// rowEntry expands a node's children only at its first occurrence; later
// clone occurrences are bare references.
func rowEntry(rows map[string]leoRow, gnx string, expanded map[string]bool) (Entry, error) {
	row, ok := rows[gnx]
	if !ok {
		return Entry{}, fmt.Errorf("%w: child %q has no vnodes row", ErrUnknownNode, gnx)
	}
	e := Entry{
		GNX:      gnx,
		Headline: row.head,
		Body:     row.body,
		Expanded: row.status&statusExpanded != 0,
		Marked:   row.status&statusMarked != 0,
		Selected: row.status&statusSelected != 0,
	}
	if expanded[gnx] {
		return e, nil
	}
	expanded[gnx] = true
	for _, c := range row.children {
		ce, err := rowEntry(rows, c, expanded)
		if err != nil {
			return Entry{}, err
		}
		e.Children = append(e.Children, ce)
	}
	return e, nil
}

// currentPosition reads the comma separated gnx path Leo stores under
// extra_infos.current_position. Older files lack the table.
func currentPosition(db *sql.DB, doc *Document) (Position, bool) {
	var value string
	err := db.QueryRow(`SELECT value FROM extra_infos WHERE name = 'current_position'`).Scan(&value)
	if err != nil {
		return Position{}, false
	}
	var path []string
	for _, gnx := range strings.Split(value, ",") {
		if gnx = strings.TrimSpace(gnx); gnx != "" {
			path = append(path, gnx)
		}
	}
	return doc.FindPath(path)
}
