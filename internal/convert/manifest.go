// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/internal/images"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// Manifest describes a converted document: where its files went and the
// node tree that produced the headings.
type Manifest struct {
	Document    string          `json:"document" yaml:"document"`
	Markdown    string          `json:"markdown" yaml:"markdown"`
	ImageDir    string          `json:"image_dir" yaml:"image_dir"`
	LinkPrefix  string          `json:"link_prefix" yaml:"link_prefix"`
	Nodes       []ManifestEntry `json:"nodes" yaml:"nodes"`
	Unreachable []int64         `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
}

// ManifestEntry is one node of the manifest tree.
type ManifestEntry struct {
	ID       int64           `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Depth    int             `json:"depth" yaml:"depth"`
	Tags     string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Syntax   string          `json:"syntax,omitempty" yaml:"syntax,omitempty"`
	Images   []string        `json:"images,omitempty" yaml:"images,omitempty"`
	Children []ManifestEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

// BuildManifest describes forest as converted with cfg.
func BuildManifest(cfg types.ConvertConfig, forest *types.Forest) Manifest {
	m := Manifest{
		Document:    cfg.Document,
		Markdown:    cfg.OutputFile,
		ImageDir:    cfg.ImageDir,
		LinkPrefix:  cfg.ReferencePrefix(),
		Unreachable: forest.Unreachable,
	}
	for _, root := range forest.Roots {
		m.Nodes = append(m.Nodes, manifestEntry(root, 1))
	}
	return m
}

func manifestEntry(n *types.Node, depth int) ManifestEntry {
	e := ManifestEntry{
		ID:     n.Record.ID,
		Name:   n.Record.Name,
		Depth:  depth,
		Tags:   n.Record.Tags,
		Syntax: n.Record.Syntax,
	}
	for _, img := range n.Images {
		e.Images = append(e.Images, img.Filename)
	}
	for _, c := range n.Children {
		e.Children = append(e.Children, manifestEntry(c, depth+1))
	}
	return e
}

// WriteManifest writes the manifest for forest to OutputDir/manifest.<format>
// and returns the path written.
func WriteManifest(cfg types.ConvertConfig, forest *types.Forest, format types.ManifestFormat) (string, error) {
	m := BuildManifest(cfg, forest)

	var (
		data []byte
		err  error
	)
	switch format {
	case types.ManifestYAML:
		data, err = yaml.Marshal(&m)
	case types.ManifestJSON:
		data, err = json.MarshalIndent(&m, "", "  ")
	default:
		return "", fmt.Errorf("%w: unsupported manifest format %q: use yaml or json", apperr.ErrConfig, format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	path := filepath.Join(cfg.OutputDir, "manifest."+string(format))
	if err := images.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}
