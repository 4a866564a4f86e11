// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns an assembled forest into a single Markdown document.
// It is pure: nothing here touches the filesystem.
package render

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/internal/images"
	"github.com/pdiddy/ctb2md/internal/richtext"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// lineBreak is the Markdown forced line break appended to headings and
// node bodies.
const lineBreak = "    \n"

// Renderer renders nodes with a fixed image reference prefix.
type Renderer struct {
	// Prefix is the path prefix for image references.
	Prefix string

	// MaxDepth bounds the heading depth. Zero means types.DefaultMaxDepth.
	MaxDepth int
}

// Output is a rendered document.
type Output struct {
	Markdown string

	// Nodes is the number of nodes rendered.
	Nodes int

	// Images is the number of image references spliced into the text.
	Images int
}

// Text returns the plain text of a node: the extracted runs of a rich-text
// payload, or the payload itself for plain-text and code nodes.
func Text(rec types.NodeRecord) (string, error) {
	if !rec.IsRichText {
		return rec.Txt, nil
	}
	text, err := richtext.Extract(rec.Txt)
	if err != nil {
		return "", fmt.Errorf("node %d %q: %w", rec.ID, rec.Name, err)
	}
	return text, nil
}

// Splice inserts a reference for each image into text, in list order.
//
// Each reference plus a newline goes in at the image's offset shifted by
// the length of every reference inserted before it; the newlines are not
// counted in the shift. Later insertions therefore land relative to the text
// as already modified, not the original text. Offsets count characters and
// are clamped to the text bounds.
func Splice(text string, imgs []types.ImageRecord, prefix string) string {
	if len(imgs) == 0 {
		return text
	}
	runes := []rune(text)
	shift := 0
	for _, img := range imgs {
		ref := images.Reference(prefix, img.Filename)
		pos := int(img.Offset) + shift
		if pos < 0 {
			pos = 0
		}
		if pos > len(runes) {
			pos = len(runes)
		}

		insert := []rune(ref + "\n")
		next := make([]rune, 0, len(runes)+len(insert))
		next = append(next, runes[:pos]...)
		next = append(next, insert...)
		next = append(next, runes[pos:]...)
		runes = next

		shift += utf8.RuneCountInString(ref)
	}
	return string(runes)
}

// Content returns a node's text with its images spliced in.
func (r *Renderer) Content(n *types.Node) (string, error) {
	text, err := Text(n.Record)
	if err != nil {
		return "", err
	}
	return Splice(text, n.Images, r.Prefix), nil
}

// frame is a pending node on the render stack.
type frame struct {
	node  *types.Node
	depth int
}

// Document renders every root and its descendants depth-first. A node at
// depth d (roots are 1) becomes
//
//	"<d × #> <name>    \n<content>    \n"
//
// followed by its children at depth d+1 in sequence order.
//
// Nodes whose payload cannot be parsed are collected and reported together
// as one joined error; no partial document is returned. A node visited twice
// or a tree deeper than MaxDepth fails with apperr.ErrStructure.
func (r *Renderer) Document(forest *types.Forest) (*Output, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = types.DefaultMaxDepth
	}

	var (
		b       strings.Builder
		out     Output
		errs    []error
		visited = make(map[*types.Node]bool)
		stack   = make([]frame, 0, len(forest.Roots))
	)
	for i := len(forest.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest.Roots[i], depth: 1})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[f.node] {
			return nil, fmt.Errorf("%w: node %d reached twice", apperr.ErrStructure, f.node.Record.ID)
		}
		visited[f.node] = true
		if f.depth > maxDepth {
			return nil, fmt.Errorf("%w: node %d is deeper than %d levels",
				apperr.ErrStructure, f.node.Record.ID, maxDepth)
		}

		content, err := r.Content(f.node)
		if err != nil {
			errs = append(errs, err)
		}
		b.WriteString(strings.Repeat("#", f.depth))
		b.WriteByte(' ')
		b.WriteString(f.node.Record.Name)
		b.WriteString(lineBreak)
		b.WriteString(content)
		b.WriteString(lineBreak)
		out.Nodes++
		out.Images += len(f.node.Images)

		children := f.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: f.depth + 1})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	out.Markdown = b.String()
	return &out, nil
}
