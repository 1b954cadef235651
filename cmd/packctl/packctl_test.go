package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
)

func writeManifest(t *testing.T, dir, name string, m catalog.Manifest) string {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := validateCmd()
	if args[0] == "search" {
		root = searchCmd()
	}
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args[1:])
	err := root.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	fan := writeManifest(t, dir, "fan.json", catalogtest.FanManifest())

	reserved := catalogtest.FanManifest()
	reserved.ID = "fable"
	bad := writeManifest(t, dir, "bad.json", reserved)

	out, err := run(t, "validate", fan)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+fan)
	assert.Contains(t, out, "fan (1 media, 2 characters)")

	out, err = run(t, "validate", fan, bad)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, out, "id: is reserved for a built-in catalog")
}

func TestValidate_Builtin(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "anilist.json", catalogtest.BuiltinManifest())

	_, err := run(t, "validate", path)
	require.Error(t, err)

	out, err := run(t, "validate", "--builtin", path)
	require.NoError(t, err)
	assert.Contains(t, out, "anilist (2 media, 3 characters)")
}

func TestSearch(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "anilist.json", catalogtest.BuiltinManifest())

	out, err := run(t, "search", "--kind", "character", path, "naruto")
	require.NoError(t, err)
	assert.Contains(t, out, "anilist:17")
	assert.NotContains(t, out, "anilist:20")

	out, err = run(t, "search", path, "zzzzzzzz")
	require.NoError(t, err)
	assert.Contains(t, out, "no match (not_found)")

	_, err = run(t, "search", "--kind", "staff", path, "naruto")
	require.Error(t, err)

	_, err = run(t, "search", "--floor", "150", path, "naruto")
	require.Error(t, err)
}
