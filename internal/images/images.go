// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images names embedded images after their content, writes them
// to disk, and builds the Markdown references that point at them.
package images

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// Ext is the extension given to every extracted image. CherryTree stores
// images as PNG.
const Ext = ".png"

// Filename returns the content-derived file name for an image payload:
// the hex MD5 digest of png followed by Ext. Identical payloads always map
// to the same name, so repeated conversions overwrite rather than duplicate.
func Filename(png []byte) string {
	sum := md5.Sum(png)
	return hex.EncodeToString(sum[:]) + Ext
}

// Reference returns the Markdown for an inline image. The four-space runs
// force a line break before and after the image. prefix is used as given,
// so a trailing slash yields a doubled one.
func Reference(prefix, filename string) string {
	return fmt.Sprintf("    \n![%s](%s/%s)    ", filename, prefix, filename)
}

// Writer persists image payloads under Dir.
type Writer struct {
	Dir    string
	Logger *zap.Logger
}

// WriteSummary counts the outcome of WriteAll.
type WriteSummary struct {
	// Written is the number of distinct files written.
	Written int

	// Duplicates is the number of records whose payload matched an image
	// already written in the same run.
	Duplicates int
}

// WriteAll writes every record's payload to Dir/Filename. Each distinct
// filename is written once; existing files are overwritten. Records with an
// empty Filename get one computed from their payload.
func (w *Writer) WriteAll(records []types.ImageRecord) (WriteSummary, error) {
	var summary WriteSummary
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("%w: creating image directory %s: %w", apperr.ErrIO, w.Dir, err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		name := rec.Filename
		if name == "" {
			name = Filename(rec.PNG)
		}
		if seen[name] {
			summary.Duplicates++
			continue
		}
		seen[name] = true

		if err := WriteFile(filepath.Join(w.Dir, name), rec.PNG); err != nil {
			return summary, err
		}
		summary.Written++
		w.logger().Debug("wrote image",
			zap.Int64("node_id", rec.NodeID),
			zap.String("file", name),
			zap.Int("bytes", len(rec.PNG)))
	}
	return summary, nil
}

func (w *Writer) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// WriteFile writes data to a temporary file next to destPath and renames
// it into place, so readers never observe a partial file.
func WriteFile(destPath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".ctb2md-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", apperr.ErrIO, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %w", apperr.ErrIO, destPath, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp file: %w", apperr.ErrIO, closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: setting mode on %s: %w", apperr.ErrIO, destPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming temp file to %s: %w", apperr.ErrIO, destPath, err)
	}
	return nil
}
