// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ctb reads the node, image, and children tables of a CherryTree
// SQLite document into flat records. It does not interpret relationships
// between rows; that is the tree package's job.
package ctb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/internal/images"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// Minimum column counts per table. Newer CherryTree versions may append
// columns; those are ignored.
const (
	nodeColumns     = 13
	imageColumns    = 8
	childrenColumns = 3
)

// Store is a read-only handle on a .ctb document.
type Store struct {
	db   *sql.DB
	path string
}

// Records holds every row of the three tables, in table order.
type Records struct {
	Nodes  []types.NodeRecord
	Images []types.ImageRecord
	Links  []types.LinkRecord
}

// Open opens the document at path read-only. A missing file is an error
// rather than an empty database.
func Open(ctx context.Context, path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", apperr.ErrStorage, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: opening %s: is a directory", apperr.ErrStorage, path)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", apperr.ErrStorage, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening database %s: %w", apperr.ErrStorage, path, err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the document path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Load reads all three tables.
func (s *Store) Load(ctx context.Context) (*Records, error) {
	nodes, err := s.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	imgs, err := s.Images(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.Links(ctx)
	if err != nil {
		return nil, err
	}
	return &Records{Nodes: nodes, Images: imgs, Links: links}, nil
}

// Nodes returns every row of the node table.
func (s *Store) Nodes(ctx context.Context) ([]types.NodeRecord, error) {
	var nodes []types.NodeRecord
	err := s.scanTable(ctx, "node", nodeColumns, func(row rowValues) error {
		n := types.NodeRecord{
			Name:   row.text(1),
			Txt:    row.text(2),
			Syntax: row.text(3),
			Tags:   row.text(4),
		}
		n.ID = row.integer(0)
		n.IsReadOnly = row.integer(5)
		n.IsRichText = row.integer(6) != 0
		n.HasCodebox = row.integer(7) != 0
		n.HasTable = row.integer(8) != 0
		n.HasImage = row.integer(9) != 0
		n.Level = row.integer(10)
		n.CreatedAt = row.integer(11)
		n.LastSavedAt = row.integer(12)
		if row.err != nil {
			return row.err
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

// Images returns every row of the image table with content-derived
// filenames filled in. Nothing is written to disk here.
func (s *Store) Images(ctx context.Context) ([]types.ImageRecord, error) {
	var imgs []types.ImageRecord
	err := s.scanTable(ctx, "image", imageColumns, func(row rowValues) error {
		img := types.ImageRecord{
			Justification:  row.text(2),
			Anchor:         row.text(3),
			PNG:            row.blob(4),
			SourceFilename: row.text(5),
			Link:           row.text(6),
		}
		img.NodeID = row.integer(0)
		img.Offset = row.integer(1)
		img.Time = row.integer(7)
		if row.err != nil {
			return row.err
		}
		img.Filename = images.Filename(img.PNG)
		imgs = append(imgs, img)
		return nil
	})
	return imgs, err
}

// Links returns every row of the children table.
func (s *Store) Links(ctx context.Context) ([]types.LinkRecord, error) {
	var links []types.LinkRecord
	err := s.scanTable(ctx, "children", childrenColumns, func(row rowValues) error {
		l := types.LinkRecord{
			NodeID:   row.integer(0),
			ParentID: row.integer(1),
			Sequence: row.integer(2),
		}
		if row.err != nil {
			return row.err
		}
		links = append(links, l)
		return nil
	})
	return links, err
}

// scanTable runs SELECT * against table and calls fn for each row with the
// raw driver values. Columns are addressed by position.
func (s *Store) scanTable(ctx context.Context, table string, minColumns int, fn func(rowValues) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return fmt.Errorf("%w: querying %s: %w", apperr.ErrStorage, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%w: reading %s columns: %w", apperr.ErrStorage, table, err)
	}
	if len(cols) < minColumns {
		return fmt.Errorf("%w: table %s has %d columns, want at least %d",
			apperr.ErrStorage, table, len(cols), minColumns)
	}

	vals := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}

	rowNum := 0
	for rows.Next() {
		rowNum++
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("%w: scanning %s row %d: %w", apperr.ErrStorage, table, rowNum, err)
		}
		if err := fn(rowValues{vals: vals}); err != nil {
			return fmt.Errorf("%w: %s row %d: %w", apperr.ErrStorage, table, rowNum, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating %s: %w", apperr.ErrStorage, table, err)
	}
	return nil
}

var errColumnType = errors.New("unexpected column type")
