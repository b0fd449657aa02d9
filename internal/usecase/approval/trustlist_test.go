package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustList_Exact(t *testing.T) {
	tl, err := NewTrustList([]string{"Bash", "Read"}, nil, nil)
	require.NoError(t, err)

	assert.True(t, tl.Trusted("Bash"))
	assert.True(t, tl.Trusted("Read"))
	assert.False(t, tl.Trusted("Write"))
	assert.False(t, tl.Trusted("bash"), "matching is case-sensitive")
}

func TestTrustList_Prefixes(t *testing.T) {
	tl, err := NewTrustList(nil, []string{"Grep", "mcp_"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		tool    string
		trusted bool
	}{
		{"Prefix itself", "Grep", true},
		{"Prefix extended", "GrepTool", true},
		{"MCP namespaced", "mcp_github_search", true},
		{"No prefix match", "Curl", false},
		{"Prefix in the middle", "SuperGrep", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.trusted, tl.Trusted(tt.tool))
		})
	}
}

func TestTrustList_Patterns(t *testing.T) {
	tl, err := NewTrustList(nil, nil, []string{"Web*", "*_readonly"})
	require.NoError(t, err)

	assert.True(t, tl.Trusted("WebFetch"))
	assert.True(t, tl.Trusted("query_readonly"))
	assert.False(t, tl.Trusted("Fetch"))
}

func TestTrustList_BadPattern(t *testing.T) {
	_, err := NewTrustList(nil, nil, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestTrustList_EmptyAndBlankEntries(t *testing.T) {
	tl, err := NewTrustList([]string{" ", ""}, []string{""}, nil)
	require.NoError(t, err)

	assert.True(t, tl.IsEmpty())
	assert.False(t, tl.Trusted(""))
	assert.False(t, tl.Trusted("anything"))
}
