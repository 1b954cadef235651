package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/id"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/search"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type packTestEnv struct {
	service  *PackService
	library  *catalog.Library
	registry *registry.Registry
	index    *search.Index
}

// setupTestPackService creates a pack service over an in-memory registry and directory.
func setupTestPackService(t *testing.T) *packTestEnv {
	t.Helper()

	reg, err := registry.New(catalogtest.Builtin(t), registry.Options{
		Now:   func() time.Time { return fixedNow },
		NewID: id.Sequential(),
	})
	require.NoError(t, err)

	index, err := search.NewIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	library := catalog.NewLibrary()

	return &packTestEnv{
		service:  NewPackService(library, reg, index, nil),
		library:  library,
		registry: reg,
		index:    index,
	}
}

func TestPackService_Submit(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	res, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)
	assert.Equal(t, "fan", res.Info.ID)
	assert.Equal(t, domain.PackKindCommunity, res.Info.Kind)
	assert.False(t, res.Replaced)

	_, ok := env.library.Get("fan")
	assert.True(t, ok)

	found, err := env.service.Available(ctx, search.Params{Query: "fan"})
	require.NoError(t, err)
	require.NotEmpty(t, found.Hits)
	assert.Equal(t, "fan", found.Hits[0].ID)

	res, err = env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)
	assert.True(t, res.Replaced)

	count, err := env.index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestPackService_SubmitRejects(t *testing.T) {
	env := setupTestPackService(t)

	reserved := catalogtest.FanManifest()
	reserved.ID = "anilist"

	_, err := env.service.Submit(context.Background(), reserved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidPack))
	assert.Equal(t, 0, env.library.Len())
}

func TestPackService_SubmitFrom(t *testing.T) {
	env := setupTestPackService(t)

	manifest := `
id: yfan
title: YAML Fan
media:
  - id: m1
    title:
      english: Some Show
`
	res, err := env.service.SubmitFrom(context.Background(), strings.NewReader(manifest), catalog.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "yfan", res.Info.ID)
	assert.Equal(t, 1, res.Info.MediaCount)

	_, err = env.service.SubmitFrom(context.Background(), strings.NewReader("id: x\nbogus: 1\n"), catalog.FormatYAML)
	assert.True(t, errors.Is(err, errors.ErrInvalidPack))
}

func TestPackService_LoadDirectory(t *testing.T) {
	env := setupTestPackService(t)
	dir := t.TempDir()

	good := `{"id": "jfan", "title": "JSON Fan", "media": [{"id": "m1", "title": {"english": "Show"}}]}`
	bad := `{"id": "fable", "media": []}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(good), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(bad), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	n, err := env.service.LoadDirectory(context.Background(), dir)
	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.json")

	info, err := env.service.Get("jfan")
	require.NoError(t, err)
	assert.Equal(t, "JSON Fan", info.Title)

	count, err := env.index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestPackService_LoadDirectoryMissing(t *testing.T) {
	env := setupTestPackService(t)

	n, err := env.service.LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPackService_Install(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	_, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)

	rec, err := env.service.Install(ctx, InstallPackRequest{TenantID: "g1", PackID: "fan", InstalledBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "fan", rec.PackID)
	assert.Equal(t, "admin", rec.InstalledBy)
	assert.Equal(t, fixedNow, rec.InstalledAt)

	installed, err := env.service.Installed(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, installed, 2)
	assert.Equal(t, "anilist", installed[0].ID)
	assert.Nil(t, installed[0].Install)
	assert.Equal(t, "fan", installed[1].ID)
	require.NotNil(t, installed[1].Install)
	assert.Equal(t, rec.ID, installed[1].Install.ID)
}

func TestPackService_InstallErrors(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	_, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)
	_, err = env.service.Install(ctx, InstallPackRequest{TenantID: "g1", PackID: "fan"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  InstallPackRequest
		want error
	}{
		{"missing tenant", InstallPackRequest{PackID: "fan"}, errors.ErrInvalidRequest},
		{"bad tenant", InstallPackRequest{TenantID: "g 1", PackID: "fan"}, errors.ErrInvalidRequest},
		{"bad pack id", InstallPackRequest{TenantID: "g1", PackID: "Fan!"}, errors.ErrInvalidRequest},
		{"built-in", InstallPackRequest{TenantID: "g1", PackID: "anilist"}, errors.ErrDuplicatePack},
		{"already installed", InstallPackRequest{TenantID: "g1", PackID: "fan"}, errors.ErrDuplicatePack},
		{"unknown pack", InstallPackRequest{TenantID: "g1", PackID: "ghost"}, errors.ErrPackNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Install(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPackService_InstallWithdrawnPackStillHeld(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	_, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)
	_, err = env.service.Install(ctx, InstallPackRequest{TenantID: "g1", PackID: "fan"})
	require.NoError(t, err)

	require.NoError(t, env.service.Withdraw(ctx, "fan"))
	_, err = env.service.Get("fan")
	assert.True(t, errors.Is(err, errors.ErrPackNotFound))

	// g1 still holds the pack, so g2 can install the same copy.
	_, err = env.service.Install(ctx, InstallPackRequest{TenantID: "g2", PackID: "fan"})
	require.NoError(t, err)

	pack, ok := env.registry.Lookup("fan")
	require.True(t, ok)
	assert.Equal(t, 2, env.registry.Refs(pack))

	assert.True(t, errors.Is(env.service.Withdraw(ctx, "fan"), errors.ErrPackNotFound))
}

func TestPackService_Uninstall(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	_, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)
	_, err = env.service.Install(ctx, InstallPackRequest{TenantID: "g1", PackID: "fan"})
	require.NoError(t, err)

	require.NoError(t, env.service.Uninstall(ctx, "g1", "fan"))
	assert.True(t, errors.Is(env.service.Uninstall(ctx, "g1", "fan"), errors.ErrPackNotFound))
	assert.True(t, errors.Is(env.service.Uninstall(ctx, "", "fan"), errors.ErrInvalidRequest))

	installed, err := env.service.Installed(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, installed, 1)
}

func TestPackService_SetDisabled(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	require.NoError(t, env.service.SetDisabled(ctx, "g1", "anilist:40", true))
	require.NoError(t, env.service.SetDisabled(ctx, "g1", "anilist:17", true))
	require.NoError(t, env.service.SetDisabled(ctx, "g1", "anilist:40", true))

	disabled, err := env.service.Disabled(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CompositeID{"anilist:17", "anilist:40"}, disabled)

	require.NoError(t, env.service.SetDisabled(ctx, "g1", "anilist:40", false))
	disabled, err = env.service.Disabled(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CompositeID{"anilist:17"}, disabled)

	err = env.service.SetDisabled(ctx, "g1", "no-colon", true)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = env.service.Disabled(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestPackService_Stats(t *testing.T) {
	env := setupTestPackService(t)
	ctx := context.Background()

	_, err := env.service.Submit(ctx, catalogtest.FanManifest())
	require.NoError(t, err)

	stats, err := env.service.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, uint64(1), stats.Indexed)
	assert.Equal(t, 0, stats.Loaded)
}
