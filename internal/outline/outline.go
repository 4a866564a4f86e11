// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline reads back a rendered Markdown document and reports its
// headings and image references.
package outline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one ATX or setext heading found in a document.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// Outline summarizes a parsed document.
type Outline struct {
	Headings []Heading `json:"headings" yaml:"headings"`

	// Images lists image destinations in document order.
	Images []string `json:"images" yaml:"images"`
}

// Parse parses markdown with goldmark's CommonMark parser and collects its
// headings and image destinations.
func Parse(markdown []byte) *Outline {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	o := &Outline{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			o.Headings = append(o.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(string(node.Text(markdown))),
			})
		case *ast.Image:
			o.Images = append(o.Images, string(node.Destination))
		}
		return ast.WalkContinue, nil
	})
	return o
}

// MaxLevel returns the deepest heading level, or 0 without headings.
func (o *Outline) MaxLevel() int {
	max := 0
	for _, h := range o.Headings {
		if h.Level > max {
			max = h.Level
		}
	}
	return max
}
