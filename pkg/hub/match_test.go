// Copyright © 2018 One Concern

package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{
		"ComfyUI/models/*",
		"ComfyUI/custom_nodes_snapshot.yaml",
		"user/default/workflows/",
		"*.[!j]son",
		"file?.txt",
	})
	require.NoError(t, err)

	for _, name := range []string{
		"ComfyUI/models/checkpoints/deep/sd15.safetensors",
		"ComfyUI/custom_nodes_snapshot.yaml",
		"user/default/workflows/a.json",
		"nested/x.bson",
		"file1.txt",
	} {
		assert.True(t, m.Match(name), name)
	}
	for _, name := range []string{
		"ComfyUI/models",
		"ComfyUI/custom_nodes_snapshot.yml",
		"user/default/subgraphs/a.json",
		"x.json",
		"file10.txt",
	} {
		assert.False(t, m.Match(name), name)
	}
}

func TestMatcherAllWhenEmpty(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)
	assert.True(t, m.Match("anything/at/all"))
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, `(?s)^a\.b.*$`, translate("a.b*"))
	assert.Equal(t, `(?s)^\[abc$`, translate("[abc"))
	assert.Equal(t, `(?s)^[\]a]$`, translate("[]a]"))
	assert.Equal(t, `(?s)^[^a-c]x$`, translate("[!a-c]x"))
}
