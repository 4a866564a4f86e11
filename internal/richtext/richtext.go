// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package richtext extracts plain text from CherryTree rich-text markup.
//
// A rich-text payload looks like
//
//	<?xml version="1.0" ?><node><rich_text>Hello </rich_text><rich_text weight="heavy">world</rich_text></node>
//
// Each immediate child of the root element carries one text run. Only the
// runs' text survives; attributes and any nested markup are dropped.
package richtext

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/ctb2md/internal/apperr"
)

// Extract concatenates, in document order, the leading text of every
// immediate child element of the payload's root: the character data that
// precedes the child's first nested element. Text between children is
// ignored. Malformed markup returns an error wrapping apperr.ErrParse.
func Extract(payload string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(payload))

	var (
		out        strings.Builder
		depth      int
		rootSeen   bool
		collecting bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", apperr.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if rootSeen {
					return "", fmt.Errorf("%w: multiple root elements", apperr.ErrParse)
				}
				rootSeen = true
			}
			depth++
			// A run's text ends at its first nested element.
			collecting = depth == 2
		case xml.EndElement:
			if depth == 2 {
				collecting = false
			}
			depth--
		case xml.CharData:
			switch {
			case depth == 0:
				if strings.TrimSpace(string(t)) != "" {
					return "", fmt.Errorf("%w: text outside root element", apperr.ErrParse)
				}
			case collecting && depth == 2:
				out.Write(t)
			}
		}
	}

	if !rootSeen {
		return "", fmt.Errorf("%w: no root element", apperr.ErrParse)
	}
	return out.String(), nil
}
