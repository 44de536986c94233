package io

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/fetch/mocks"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// resolve builds webapp -> tornado -> six, webapp -> six@>=2 (conflict).
func resolve(t *testing.T) (*deps.Graph, deps.Diagnostics) {
	t.Helper()
	f := mocks.NewMockSourceFetcher(gomock.NewController(t))
	f.EXPECT().FetchRegistryArchive(gomock.Any(), "tornado", "").
		Return(&fetch.Result{StagingPath: t.TempDir(), ResolvedVersion: "4.5.2", Name: "tornado", Dependencies: []string{"six@>=2"}}, nil)
	f.EXPECT().FetchRegistryArchive(gomock.Any(), "six", "1.16.0").
		Return(&fetch.Result{StagingPath: t.TempDir(), ResolvedVersion: "1.16.0", Name: "six"}, nil)

	root := &manifest.Manifest{Name: "webapp", Version: "0.1.0", Dependencies: []specifier.Specifier{
		specifier.MustParse("tornado"),
		specifier.MustParse("six@1.16.0"),
	}}
	g, diags, err := deps.NewBuilder(f, deps.Options{Workers: 1}).Build(context.Background(), root)
	require.NoError(t, err)
	return g, diags
}

func TestWriteJSON(t *testing.T) {
	g, diags := resolve(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g, diags))

	var doc graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "webapp", doc.Root)
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, node{ID: "webapp", Version: "0.1.0", Kind: "registry"}, doc.Nodes[0])
	assert.Equal(t, node{ID: "tornado", Version: "4.5.2", Kind: "registry", Source: "tornado", Row: 1, Synthesized: true}, doc.Nodes[1])
	assert.Equal(t, "six", doc.Nodes[2].ID)
	assert.Equal(t, []edge{{"webapp", "tornado"}, {"webapp", "six"}, {"tornado", "six"}}, doc.Edges)
	assert.Empty(t, doc.Cycles)

	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "conflict", doc.Diagnostics[0].Kind)
	assert.Equal(t, "six", doc.Diagnostics[0].Package)
	assert.Equal(t, "1.16.0", doc.Diagnostics[0].Existing)
	assert.Equal(t, ">=2", doc.Diagnostics[0].Requested)
}

func TestExportJSON(t *testing.T) {
	g, _ := resolve(t)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, ExportJSON(g, nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g, nil))
	assert.Equal(t, buf.String(), string(data))
	assert.NotContains(t, string(data), "diagnostics")
}
