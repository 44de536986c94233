package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/integrations/pypi"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"json", false},
		{"png", true},
		{"DOT", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{Workers: 3}.WithDefaults()
	assert.Equal(t, pypi.DefaultBaseURL, o.IndexURL)
	assert.Equal(t, install.DirName, o.InstallDir)
	assert.Equal(t, "git", o.Git)
	assert.Equal(t, DefaultCacheTTL, o.CacheTTL)
	assert.Equal(t, 3, o.Workers)

	b := o.builderOptions(nil)
	assert.Equal(t, 3, b.Workers)
	assert.Equal(t, deps.DefaultMaxDepth, b.MaxDepth)
	assert.Equal(t, deps.FirstWins, b.Policy)

	custom := Options{CacheTTL: time.Minute, InstallDir: "vendor"}.WithDefaults()
	assert.Equal(t, time.Minute, custom.CacheTTL)
	assert.Equal(t, "vendor", custom.InstallDir)
}

func TestRender(t *testing.T) {
	r, f, root := newTestRunner(t)
	writeRoot(t, root, "tornado")
	expectPackage(t, f, "tornado", "", "4.5.2")

	res, err := r.Resolve(context.Background(), root)
	require.NoError(t, err)

	dot, err := Render(context.Background(), res, FormatDOT, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph G {"))
	assert.Contains(t, string(dot), `"webapp" -> "tornado";`)

	data, err := Render(context.Background(), res, FormatJSON, false)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "webapp", doc["root"])

	_, err = Render(context.Background(), res, "png", false)
	assert.Error(t, err)
}
