// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/pkg/types"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592.png", Filename([]byte("hello")))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e.png", Filename(nil))

	assert.Equal(t, Filename([]byte{0x89, 'P', 'N', 'G', 1}), Filename([]byte{0x89, 'P', 'N', 'G', 1}),
		"identical payloads share a name")
	assert.NotEqual(t, Filename([]byte{0x89, 'P', 'N', 'G', 1}), Filename([]byte{0x89, 'P', 'N', 'G', 2}),
		"distinct payloads get distinct names")
}

func TestReference(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "relative prefix", prefix: "./images", want: "    \n![a.png](./images/a.png)    "},
		{name: "trailing slash kept", prefix: "./images/", want: "    \n![a.png](./images//a.png)    "},
		{name: "root prefix", prefix: "/", want: "    \n![a.png](//a.png)    "},
		{name: "empty prefix", prefix: "", want: "    \n![a.png](/a.png)    "},
		{name: "absolute prefix", prefix: "/static/img", want: "    \n![a.png](/static/img/a.png)    "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reference(tt.prefix, "a.png"))
		})
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "images")
	w := &Writer{Dir: dir, Logger: zaptest.NewLogger(t)}

	records := []types.ImageRecord{
		{NodeID: 1, PNG: []byte("first"), Filename: Filename([]byte("first"))},
		{NodeID: 2, PNG: []byte("second")},
		{NodeID: 3, PNG: []byte("first"), Filename: Filename([]byte("first"))},
	}

	summary, err := w.WriteAll(records)
	require.NoError(t, err)
	assert.Equal(t, WriteSummary{Written: 2, Duplicates: 1}, summary)

	data, err := os.ReadFile(filepath.Join(dir, Filename([]byte("first"))))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	data, err = os.ReadFile(filepath.Join(dir, Filename([]byte("second"))))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestWriteAllIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	records := []types.ImageRecord{{NodeID: 1, PNG: []byte("payload")}}

	_, err := w.WriteAll(records)
	require.NoError(t, err)
	path := filepath.Join(dir, Filename([]byte("payload")))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	_, err = w.WriteAll(records)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data), "second run overwrites the existing file")
}

func TestWriteAllUnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "images")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	w := &Writer{Dir: blocker}
	_, err := w.WriteAll([]types.ImageRecord{{PNG: []byte("x")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIO)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteFile(path, []byte("# Title    \n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.md"), []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrIO)
}
