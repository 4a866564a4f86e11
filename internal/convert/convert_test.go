// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/internal/ctb"
	"github.com/pdiddy/ctb2md/internal/ctbtest"
	"github.com/pdiddy/ctb2md/internal/images"
	"github.com/pdiddy/ctb2md/pkg/types"
)

var (
	pngChild  = []byte("\x89PNG child image")
	pngHidden = []byte("\x89PNG hidden image")
)

// sampleDoc is one root "Root" (text "Hello") with one child "Child"
// (text "World", one image at offset 2), plus an image row for the root
// whose has-image flag is off.
func sampleDoc() ctbtest.Doc {
	child := ctbtest.Node(2, "Child", "Wor", "ld")
	child.HasImage = true
	return ctbtest.Doc{
		Nodes: []types.NodeRecord{ctbtest.Node(1, "Root", "Hello"), child},
		Images: []types.ImageRecord{
			{NodeID: 2, Offset: 2, PNG: pngChild},
			{NodeID: 1, Offset: 0, PNG: pngHidden},
		},
		Links: []types.LinkRecord{
			{NodeID: 1, ParentID: 0, Sequence: 1},
			{NodeID: 2, ParentID: 1, Sequence: 1},
		},
	}
}

func testConfig(t *testing.T, doc ctbtest.Doc) types.ConvertConfig {
	t.Helper()
	cfg := types.DefaultConvertConfig()
	cfg.Document = ctbtest.Write(t, t.TempDir(), "notes.ctb", doc)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.LinkPrefix = "prefix"
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, sampleDoc())
	var log bytes.Buffer

	result, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &log)
	require.NoError(t, err)

	childFile := images.Filename(pngChild)
	want := "# Root    \nHello    \n" +
		"## Child    \nWo    \n![" + childFile + "](prefix/" + childFile + ")    \nrld    \n"

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "output.md"))
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	assert.Equal(t, filepath.Join(cfg.OutputDir, "output.md"), result.OutputPath)
	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, 1, result.Images)
	assert.Equal(t, 2, result.ImagesWritten)
	assert.Empty(t, result.Unreachable)
	assert.Nil(t, result.Outline)
	assert.Contains(t, log.String(), "markdown:")
}

func TestRunWritesImagesForNodesWithoutImageFlag(t *testing.T) {
	cfg := testConfig(t, sampleDoc())

	_, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
	require.NoError(t, err)

	hidden := images.Filename(pngHidden)
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, cfg.ImageDir, hidden))
	require.NoError(t, err, "image is extracted even though it is not rendered")
	assert.Equal(t, pngHidden, data)

	md, err := os.ReadFile(filepath.Join(cfg.OutputDir, cfg.OutputFile))
	require.NoError(t, err)
	assert.NotContains(t, string(md), hidden)
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t, sampleDoc())

	outputs := make([]string, 2)
	fileSets := make([][]string, 2)
	for i := range outputs {
		cfg.OutputDir = filepath.Join(t.TempDir(), "out")
		_, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, cfg.OutputFile))
		require.NoError(t, err)
		outputs[i] = string(data)
		fileSets[i] = listDir(t, filepath.Join(cfg.OutputDir, cfg.ImageDir))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, fileSets[0], fileSets[1])

	// Running again into the same directory overwrites without error.
	_, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, fileSets[1], listDir(t, filepath.Join(cfg.OutputDir, cfg.ImageDir)))
}

func TestRunSharedPayloadSharesFilename(t *testing.T) {
	doc := sampleDoc()
	doc.Nodes[0].HasImage = true
	doc.Images[1].PNG = pngChild

	cfg := testConfig(t, doc)
	result, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ImagesWritten)
	assert.Equal(t, 2, result.Images)
	assert.Equal(t, []string{images.Filename(pngChild)}, listDir(t, result.ImageDir))
}

func TestRunManifest(t *testing.T) {
	for _, format := range []types.ManifestFormat{types.ManifestYAML, types.ManifestJSON} {
		t.Run(string(format), func(t *testing.T) {
			cfg := testConfig(t, sampleDoc())
			cfg.Manifest = format

			result, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
			require.NoError(t, err)
			require.Equal(t, filepath.Join(cfg.OutputDir, "manifest."+string(format)), result.ManifestPath)

			data, err := os.ReadFile(result.ManifestPath)
			require.NoError(t, err)

			var m Manifest
			if format == types.ManifestYAML {
				require.NoError(t, yaml.Unmarshal(data, &m))
			} else {
				require.NoError(t, json.Unmarshal(data, &m))
			}

			assert.Equal(t, "prefix", m.LinkPrefix)
			require.Len(t, m.Nodes, 1)
			assert.Equal(t, "Root", m.Nodes[0].Name)
			assert.Empty(t, m.Nodes[0].Images)
			require.Len(t, m.Nodes[0].Children, 1)
			assert.Equal(t, 2, m.Nodes[0].Children[0].Depth)
			assert.Equal(t, []string{images.Filename(pngChild)}, m.Nodes[0].Children[0].Images)
		})
	}
}

func TestRunCheck(t *testing.T) {
	cfg := testConfig(t, sampleDoc())
	cfg.Check = true

	result, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, result.Outline)
	assert.Len(t, result.Outline.Headings, 2)
	assert.Equal(t, 2, result.Outline.MaxLevel())
	assert.Equal(t, []string{"prefix/" + images.Filename(pngChild)}, result.Outline.Images)
}

func TestRunUnreachableNodes(t *testing.T) {
	doc := sampleDoc()
	doc.Nodes = append(doc.Nodes, ctbtest.Node(3, "Orphan", "lost"))

	cfg := testConfig(t, doc)
	result, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, result.Unreachable)
	assert.Equal(t, 2, result.Nodes)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) types.ConvertConfig
		target error
	}{
		{
			name: "missing document",
			setup: func(t *testing.T) types.ConvertConfig {
				cfg := testConfig(t, sampleDoc())
				cfg.Document = filepath.Join(t.TempDir(), "missing.ctb")
				return cfg
			},
			target: apperr.ErrStorage,
		},
		{
			name: "invalid config",
			setup: func(t *testing.T) types.ConvertConfig {
				cfg := testConfig(t, sampleDoc())
				cfg.OutputFile = ""
				return cfg
			},
			target: apperr.ErrConfig,
		},
		{
			name: "malformed rich text",
			setup: func(t *testing.T) types.ConvertConfig {
				doc := sampleDoc()
				doc.Nodes[1].Txt = "<node><rich_text>World"
				return testConfig(t, doc)
			},
			target: apperr.ErrParse,
		},
		{
			name: "link to missing parent",
			setup: func(t *testing.T) types.ConvertConfig {
				doc := sampleDoc()
				doc.Links[1].ParentID = 42
				return testConfig(t, doc)
			},
			target: apperr.ErrStructure,
		},
		{
			name: "parent cycle",
			setup: func(t *testing.T) types.ConvertConfig {
				doc := sampleDoc()
				doc.Nodes = append(doc.Nodes, ctbtest.Node(3, "A", "a"), ctbtest.Node(4, "B", "b"))
				doc.Links = append(doc.Links,
					types.LinkRecord{NodeID: 3, ParentID: 4, Sequence: 1},
					types.LinkRecord{NodeID: 4, ParentID: 3, Sequence: 1})
				return testConfig(t, doc)
			},
			target: apperr.ErrStructure,
		},
		{
			name: "output directory is a file",
			setup: func(t *testing.T) types.ConvertConfig {
				cfg := testConfig(t, sampleDoc())
				blocker := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(blocker, nil, 0o644))
				cfg.OutputDir = blocker
				return cfg
			},
			target: apperr.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.setup(t)
			_, err := Run(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			_, statErr := os.Stat(filepath.Join(cfg.OutputDir, cfg.OutputFile))
			assert.True(t, cfg.OutputFile == "" || statErr != nil, "no document written on failure")
		})
	}
}

// fakeSource serves canned records without a database.
type fakeSource struct {
	records *ctb.Records
	err     error
}

func (f *fakeSource) Load(context.Context) (*ctb.Records, error) {
	return f.records, f.err
}

func TestRunSource(t *testing.T) {
	cfg := types.DefaultConvertConfig()
	cfg.Document = "in-memory.ctb"
	cfg.OutputDir = t.TempDir()

	src := &fakeSource{records: &ctb.Records{
		Nodes: []types.NodeRecord{
			{ID: 10, Name: "Plain", Txt: "raw text"},
		},
		Links: []types.LinkRecord{{NodeID: 10, ParentID: 0, Sequence: 1}},
	}}

	result, err := RunSource(context.Background(), src, cfg, nil, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "# Plain    \nraw text    \n", string(data))
}

func TestRunSourceLoadError(t *testing.T) {
	cfg := types.DefaultConvertConfig()
	cfg.Document = "in-memory.ctb"
	cfg.OutputDir = t.TempDir()

	loadErr := errors.New("disk on fire")
	_, err := RunSource(context.Background(), &fakeSource{err: loadErr}, cfg, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, loadErr)
}

func TestRunSourceCanceled(t *testing.T) {
	cfg := types.DefaultConvertConfig()
	cfg.Document = "in-memory.ctb"
	cfg.OutputDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunSource(ctx, &fakeSource{records: &ctb.Records{}}, cfg, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
