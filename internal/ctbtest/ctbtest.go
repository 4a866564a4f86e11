// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ctbtest writes small CherryTree documents for tests.
package ctbtest

import (
	"database/sql"
	"html"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ctb2md/pkg/types"
)

// Schema is the table layout CherryTree uses for .ctb files.
var Schema = []string{
	`CREATE TABLE node (
		node_id INTEGER UNIQUE, name TEXT, txt TEXT, syntax TEXT, tags TEXT,
		is_ro INTEGER, is_richtxt INTEGER, has_codebox INTEGER, has_table INTEGER,
		has_image INTEGER, level INTEGER, ts_creation INTEGER, ts_lastsave INTEGER)`,
	`CREATE TABLE image (
		node_id INTEGER, "offset" INTEGER, justification TEXT, anchor TEXT,
		png BLOB, filename TEXT, link TEXT, time INTEGER)`,
	`CREATE TABLE children (node_id INTEGER UNIQUE, father_id INTEGER, sequence INTEGER)`,
	`CREATE TABLE codebox (
		node_id INTEGER, "offset" INTEGER, justification TEXT, txt TEXT, syntax TEXT,
		width INTEGER, height INTEGER, is_width_pix INTEGER, do_highl_bra INTEGER,
		do_show_linenum INTEGER)`,
	`CREATE TABLE grid (
		node_id INTEGER, "offset" INTEGER, justification TEXT, txt TEXT,
		col_min INTEGER, col_max INTEGER)`,
	`CREATE TABLE bookmark (node_id INTEGER UNIQUE, sequence INTEGER)`,
}

// Doc is the content of a test document.
type Doc struct {
	Nodes  []types.NodeRecord
	Images []types.ImageRecord
	Links  []types.LinkRecord
}

// RichText returns a rich-text payload with one rich_text element per run.
func RichText(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" ?><node>`)
	for _, r := range runs {
		b.WriteString("<rich_text>")
		b.WriteString(html.EscapeString(r))
		b.WriteString("</rich_text>")
	}
	b.WriteString("</node>")
	return b.String()
}

// Node returns a rich-text node record with the given text runs.
func Node(id int64, name string, runs ...string) types.NodeRecord {
	return types.NodeRecord{
		ID:         id,
		Name:       name,
		Txt:        RichText(runs...),
		Syntax:     "custom-colors",
		IsRichText: true,
	}
}

// Write creates dir/name as a .ctb file holding doc and returns its path.
func Write(t *testing.T, dir, name string, doc Doc) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()

	for _, stmt := range Schema {
		exec(t, db, stmt)
	}
	for _, n := range doc.Nodes {
		exec(t, db, `INSERT INTO node VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Name, n.Txt, n.Syntax, n.Tags, n.IsReadOnly,
			flag(n.IsRichText), flag(n.HasCodebox), flag(n.HasTable), flag(n.HasImage),
			n.Level, n.CreatedAt, n.LastSavedAt)
	}
	for _, img := range doc.Images {
		exec(t, db, `INSERT INTO image VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			img.NodeID, img.Offset, img.Justification, img.Anchor,
			img.PNG, img.SourceFilename, img.Link, img.Time)
	}
	for _, l := range doc.Links {
		exec(t, db, `INSERT INTO children VALUES (?, ?, ?)`, l.NodeID, l.ParentID, l.Sequence)
	}
	return path
}

// Exec runs a statement against an existing document, for tests that need
// to damage or reshape it.
func Exec(t *testing.T, path, stmt string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()
	exec(t, db, stmt, args...)
}

func exec(t *testing.T, db *sql.DB, stmt string, args ...any) {
	t.Helper()
	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("executing %q: %v", stmt, err)
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
