// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the .ctb to Markdown pipeline:
// load records, write images, assemble the tree, render, write the document.
//
// Disk writes happen only in the named boundary steps (image extraction,
// document write, manifest export); every stage between them is pure.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/internal/ctb"
	"github.com/pdiddy/ctb2md/internal/images"
	"github.com/pdiddy/ctb2md/internal/outline"
	"github.com/pdiddy/ctb2md/internal/render"
	"github.com/pdiddy/ctb2md/internal/tree"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// Source supplies the flat records of a document. *ctb.Store implements it.
type Source interface {
	Load(ctx context.Context) (*ctb.Records, error)
}

// Result holds the outcome of a conversion run.
type Result struct {
	// OutputPath is the Markdown file written.
	OutputPath string

	// ImageDir is the on-disk directory images were written to.
	ImageDir string

	// ManifestPath is set when a manifest was exported.
	ManifestPath string

	// Nodes is the number of nodes rendered.
	Nodes int

	// Images is the number of image references in the document.
	Images int

	// ImagesWritten is the number of distinct image files written.
	ImagesWritten int

	// Unreachable lists node ids present in the document but not linked
	// into the tree.
	Unreachable []int64

	// Outline is the parsed outline of the output when a check was requested.
	Outline *outline.Outline
}

// Run converts the document named by cfg.Document. Progress lines go to w.
func Run(ctx context.Context, cfg types.ConvertConfig, logger *zap.Logger, w io.Writer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	store, err := ctb.Open(ctx, cfg.Document)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return RunSource(ctx, store, cfg, logger, w)
}

// RunSource runs the pipeline against an already opened source.
func RunSource(ctx context.Context, src Source, cfg types.ConvertConfig, logger *zap.Logger, w io.Writer) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	imageDir := filepath.Join(cfg.OutputDir, cfg.ImageDir)
	for _, dir := range []string{cfg.OutputDir, imageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating directory %s: %w", apperr.ErrIO, dir, err)
		}
	}

	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded document",
		zap.String("document", cfg.Document),
		zap.Int("nodes", len(records.Nodes)),
		zap.Int("images", len(records.Images)),
		zap.Int("links", len(records.Links)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writer := &images.Writer{Dir: imageDir, Logger: logger}
	written, err := writer.WriteAll(records.Images)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "images:  %d written to %s (%d duplicates)\n", written.Written, imageDir, written.Duplicates)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	forest, err := tree.Assemble(records.Nodes, records.Images, records.Links)
	if err != nil {
		return nil, err
	}
	for _, id := range forest.Unreachable {
		logger.Warn("node is not linked into the tree and will not be rendered", zap.Int64("node_id", id))
	}

	renderer := &render.Renderer{Prefix: cfg.ReferencePrefix(), MaxDepth: cfg.MaxDepth}
	out, err := renderer.Document(forest)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(cfg.OutputDir, cfg.OutputFile)
	if err := images.WriteFile(outPath, []byte(out.Markdown)); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "markdown: %s (%d nodes, %d images)\n", outPath, out.Nodes, out.Images)

	result := &Result{
		OutputPath:    outPath,
		ImageDir:      imageDir,
		Nodes:         out.Nodes,
		Images:        out.Images,
		ImagesWritten: written.Written,
		Unreachable:   forest.Unreachable,
	}

	if cfg.Manifest != types.ManifestNone {
		path, err := WriteManifest(cfg, forest, cfg.Manifest)
		if err != nil {
			return nil, err
		}
		result.ManifestPath = path
		fmt.Fprintf(w, "manifest: %s\n", path)
	}

	if cfg.Check {
		result.Outline = check(out, logger)
	}

	return result, nil
}

// check parses the rendered document and warns when its outline disagrees
// with the tree. Node text may itself contain Markdown headings, so a
// mismatch is not an error.
func check(out *render.Output, logger *zap.Logger) *outline.Outline {
	o := outline.Parse([]byte(out.Markdown))
	if len(o.Headings) != out.Nodes {
		logger.Warn("rendered outline differs from node tree",
			zap.Int("headings", len(o.Headings)),
			zap.Int("nodes", out.Nodes))
	}
	if len(o.Images) != out.Images {
		logger.Warn("rendered image references differ from attached images",
			zap.Int("references", len(o.Images)),
			zap.Int("images", out.Images))
	}
	return o
}
