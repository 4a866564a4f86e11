// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// NodeRecord is one row of the CherryTree node table. Column order in the
// table is node_id, name, txt, syntax, tags, is_ro, is_richtxt, has_codebox,
// has_table, has_image, level, ts_creation, ts_lastsave.
type NodeRecord struct {
	// ID is the node_id column. Ids are unique but not guaranteed dense.
	ID int64 `json:"id" yaml:"id"`

	// Name is the node title shown in the CherryTree sidebar.
	Name string `json:"name" yaml:"name"`

	// Txt is the raw payload: rich-text markup when IsRichText is set,
	// otherwise the plain text of a code or plain-text node.
	Txt string `json:"-" yaml:"-"`

	// Syntax is the highlight hint ("custom-colors" for rich text).
	Syntax string `json:"syntax" yaml:"syntax"`

	// Tags is the space-separated tag string.
	Tags string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// IsReadOnly packs the read-only bit and the custom icon id.
	IsReadOnly int64 `json:"is_ro" yaml:"is_ro"`

	IsRichText bool `json:"is_richtxt" yaml:"is_richtxt"`
	HasCodebox bool `json:"has_codebox" yaml:"has_codebox"`
	HasTable   bool `json:"has_table" yaml:"has_table"`
	HasImage   bool `json:"has_image" yaml:"has_image"`

	// Level is the hierarchy level CherryTree stored for the node.
	Level int64 `json:"level" yaml:"level"`

	// CreatedAt and LastSavedAt are Unix timestamps in seconds.
	CreatedAt   int64 `json:"ts_creation" yaml:"ts_creation"`
	LastSavedAt int64 `json:"ts_lastsave" yaml:"ts_lastsave"`
}

// ImageRecord is one row of the CherryTree image table. Column order is
// node_id, offset, justification, anchor, png, filename, link, time.
type ImageRecord struct {
	// NodeID is the owning node.
	NodeID int64 `json:"node_id" yaml:"node_id"`

	// Offset is the character position in the node's extracted text where
	// the image reference is inserted.
	Offset int64 `json:"offset" yaml:"offset"`

	Justification string `json:"justification,omitempty" yaml:"justification,omitempty"`
	Anchor        string `json:"anchor,omitempty" yaml:"anchor,omitempty"`

	// PNG is the raw image payload.
	PNG []byte `json:"-" yaml:"-"`

	// Filename is derived from the PNG content, so identical payloads
	// always share a name.
	Filename string `json:"filename" yaml:"filename"`

	// SourceFilename is the filename column (set for embedded files).
	SourceFilename string `json:"source_filename,omitempty" yaml:"source_filename,omitempty"`

	Link string `json:"link,omitempty" yaml:"link,omitempty"`
	Time int64  `json:"time" yaml:"time"`
}

// LinkRecord is one row of the children table: a parent/child edge.
type LinkRecord struct {
	NodeID int64

	// ParentID is the father_id column; RootParentID marks a top-level node.
	ParentID int64

	// Sequence orders siblings under the same parent, ascending.
	Sequence int64
}

// RootParentID is the father_id value for top-level nodes.
const RootParentID int64 = 0

// IsRoot reports whether the link places its node at the top level.
func (l LinkRecord) IsRoot() bool {
	return l.ParentID == RootParentID
}

// Node is an assembled tree node: a record plus the images attached to it
// and its children in sequence order. Nodes are built once by the tree
// assembler and not modified afterwards.
type Node struct {
	Record   NodeRecord
	Images   []ImageRecord
	Children []*Node
}

// Forest is the assembled notebook.
type Forest struct {
	// Roots holds the top-level nodes in sequence order.
	Roots []*Node

	// Unreachable lists ids of nodes that no link placed in the tree.
	// They are not rendered.
	Unreachable []int64
}

// Count returns the number of nodes reachable from the roots.
func (f *Forest) Count() int {
	n := 0
	stack := append([]*Node(nil), f.Roots...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, top.Children...)
	}
	return n
}
