package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/search"
	"github.com/packdex/packdex-server/internal/service"
)

func TestSubmitPack_JSON(t *testing.T) {
	ts := setupTestServer(t)

	raw, err := json.Marshal(catalogtest.FanManifest())
	require.NoError(t, err)

	resp := ts.api.Post("/api/v1/packs", "Content-Type: application/json", strings.NewReader(string(raw)))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[service.SubmitResult](t, resp.Body.Bytes())
	assert.False(t, env.Data.Replaced)
	assert.Equal(t, "fan", env.Data.Info.ID)
	assert.Equal(t, domain.PackKindCommunity, env.Data.Info.Kind)
	assert.Equal(t, 1, env.Data.Info.MediaCount)
	assert.Equal(t, 2, env.Data.Info.CharacterCount)

	// Resubmitting replaces the library copy.
	resp = ts.api.Post("/api/v1/packs", "Content-Type: application/json", strings.NewReader(string(raw)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[service.SubmitResult](t, resp.Body.Bytes()).Data.Replaced)
}

func TestSubmitPack_YAML(t *testing.T) {
	ts := setupTestServer(t)

	manifest := `
id: villains
title: Villain Pack
media:
  - id: v1
    title:
      english: Dark Tower
characters:
  - id: c1
    name:
      full: Lord Umbra
    appearances:
      - media: v1
        role: MAIN
`
	resp := ts.api.Post("/api/v1/packs", "Content-Type: application/yaml; charset=utf-8", strings.NewReader(manifest))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "villains", decode[service.SubmitResult](t, resp.Body.Bytes()).Data.Info.ID)
}

func TestSubmitPack_Invalid(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id": `},
		{"unknown field", `{"id": "fan", "colour": "red"}`},
		{"reserved id", `{"id": "fable"}`},
		{"bad pack id", `{"id": "Fan!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/packs", "Content-Type: application/json", strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, "INVALID_PACK", decode[any](t, resp.Body.Bytes()).Code)
		})
	}
}

func TestSearchPacks(t *testing.T) {
	ts := setupTestServer(t)
	ts.submitFan(t)

	resp := ts.api.Get("/api/v1/packs?q=fan")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[search.Result](t, resp.Body.Bytes())
	require.NotEmpty(t, env.Data.Hits)
	assert.Equal(t, "fan", env.Data.Hits[0].ID)

	resp = ts.api.Get("/api/v1/packs")
	require.Equal(t, http.StatusOK, resp.Code)
	env = decode[search.Result](t, resp.Body.Bytes())
	assert.Equal(t, uint64(1), env.Data.Total)
}

func TestGetAndWithdrawPack(t *testing.T) {
	ts := setupTestServer(t)
	ts.submitFan(t)

	resp := ts.api.Get("/api/v1/packs/fan")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Fan Pack", decode[catalog.Info](t, resp.Body.Bytes()).Data.Title)

	resp = ts.api.Delete("/api/v1/packs/fan")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/packs/fan")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "PACK_NOT_FOUND", decode[any](t, resp.Body.Bytes()).Code)

	resp = ts.api.Delete("/api/v1/packs/fan")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTenantPacks_InstallListUninstall(t *testing.T) {
	ts := setupTestServer(t)
	ts.submitFan(t)

	resp := ts.api.Post("/api/v1/tenants/g1/packs", map[string]any{"pack_id": "fan", "installed_by": "mod-7"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	rec := decode[domain.PackInstall](t, resp.Body.Bytes()).Data
	assert.Equal(t, "g1", rec.TenantID)
	assert.Equal(t, "fan", rec.PackID)
	assert.Equal(t, "mod-7", rec.InstalledBy)
	assert.NotEmpty(t, rec.ID)

	resp = ts.api.Get("/api/v1/tenants/g1/packs")
	require.Equal(t, http.StatusOK, resp.Code)
	packs := decode[TenantPacksResponse](t, resp.Body.Bytes()).Data.Packs
	require.Len(t, packs, 2)
	assert.Equal(t, "anilist", packs[0].ID)
	assert.Nil(t, packs[0].Install)
	assert.Equal(t, "fan", packs[1].ID)
	require.NotNil(t, packs[1].Install)
	assert.Equal(t, "mod-7", packs[1].Install.InstalledBy)

	// The fan pack's records now resolve for g1 only.
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/tenants/g1/entities/fan:pk1").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/tenants/g2/entities/fan:pk1").Code)

	resp = ts.api.Delete("/api/v1/tenants/g1/packs/fan")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/tenants/g1/entities/fan:pk1").Code)

	resp = ts.api.Delete("/api/v1/tenants/g1/packs/fan")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "PACK_NOT_FOUND", decode[any](t, resp.Body.Bytes()).Code)
}

func TestTenantPacks_InstallErrors(t *testing.T) {
	ts := setupTestServer(t)
	ts.submitFan(t)

	resp := ts.api.Post("/api/v1/tenants/g1/packs", map[string]any{"pack_id": "fan"})
	require.Equal(t, http.StatusCreated, resp.Code)

	tests := []struct {
		name       string
		tenant     string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"already installed", "g1", map[string]any{"pack_id": "fan"}, http.StatusConflict, "DUPLICATE_PACK"},
		{"built-in pack", "g1", map[string]any{"pack_id": "anilist"}, http.StatusConflict, "DUPLICATE_PACK"},
		{"unknown pack", "g1", map[string]any{"pack_id": "ghost"}, http.StatusNotFound, "PACK_NOT_FOUND"},
		{"bad pack id", "g1", map[string]any{"pack_id": "Ghost!"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad tenant", "-g1", map[string]any{"pack_id": "fan"}, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/tenants/"+tt.tenant+"/packs", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decode[any](t, resp.Body.Bytes()).Code)
		})
	}
}

func TestTenantPacks_UninstallBuiltin(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Delete("/api/v1/tenants/g1/packs/anilist")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[any](t, resp.Body.Bytes()).Code)
}

func TestDisabledRecords(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/disabled")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[DisabledResponse](t, resp.Body.Bytes()).Data.Disabled)

	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/tenants/g1/disabled/anilist:40").Code)
	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/tenants/g1/disabled/anilist:21").Code)
	// Disabling twice is a no-op.
	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/tenants/g1/disabled/anilist:40").Code)

	resp = ts.api.Get("/api/v1/tenants/g1/disabled")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []domain.CompositeID{"anilist:21", "anilist:40"},
		decode[DisabledResponse](t, resp.Body.Bytes()).Data.Disabled)

	assert.True(t, ts.Server.services.Resolver.IsDisabled("g1", "anilist:40"))

	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/tenants/g1/disabled/anilist:40").Code)
	assert.False(t, ts.Server.services.Resolver.IsDisabled("g1", "anilist:40"))

	resp = ts.api.Put("/api/v1/tenants/g1/disabled/not-an-id")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDisabledRecords_CascadeThroughAPI(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/tenants/g1/disabled/anilist:21").Code)

	// Luffy only appears in the disabled media.
	resp := ts.api.Get("/api/v1/tenants/g1/entities/anilist:40")
	assert.Equal(t, http.StatusGone, resp.Code)
	assert.Equal(t, map[string]any{"reason": "cascade"}, decode[any](t, resp.Body.Bytes()).Details)

	res, err := ts.services.Resolver.ResolveByID(ctx, "g2", "anilist:40")
	require.NoError(t, err)
	assert.Equal(t, "found", string(res.Status))
}
