package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		v, err := Generate(PrefixInstall)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}

func TestGenerate_Format(t *testing.T) {
	v, err := Generate(PrefixInstall)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(v, "inst-"))
	assert.Len(t, v, len("inst-")+21)
}

func TestSequential(t *testing.T) {
	gen := Sequential()

	a, _ := gen(PrefixInstall)
	b, _ := gen(PrefixInstall)

	assert.Equal(t, "inst-1", a)
	assert.Equal(t, "inst-2", b)
}
