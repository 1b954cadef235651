package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/api/dto"
)

func TestGetEntity(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/entities/anilist:20")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[dto.Entity](t, resp.Body.Bytes())
	assert.Equal(t, "anilist:20", env.Data.ID)
	assert.Equal(t, "media", env.Data.Kind)
	assert.Equal(t, "Naruto", env.Data.Name)
	assert.Equal(t, 900, env.Data.Popularity)
	require.NotNil(t, env.Data.Media)
	assert.Equal(t, "NARUTO -ナルト-", env.Data.Media.Title.Native)
}

func TestGetEntity_Errors(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.registry.DisableEntity(context.Background(), "g1", "anilist:21"))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown local id", "/api/v1/tenants/g1/entities/anilist:999", http.StatusNotFound, "NOT_FOUND"},
		{"pack not enabled", "/api/v1/tenants/g1/entities/fan:m1", http.StatusNotFound, "NOT_FOUND"},
		{"disabled", "/api/v1/tenants/g1/entities/anilist:21", http.StatusGone, "DISABLED"},
		{"malformed id", "/api/v1/tenants/g1/entities/21", http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decode[any](t, resp.Body.Bytes()).Code)
		})
	}

	// The disable is per tenant.
	resp := ts.api.Get("/api/v1/tenants/g2/entities/anilist:21")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetEntity_EscapedID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/entities/anilist%3A17")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "anilist:17", decode[dto.Entity](t, resp.Body.Bytes()).Data.ID)
}

func TestGetVisibility(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	resp := ts.api.Get("/api/v1/tenants/g1/entities/anilist:17/visibility")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[VisibilityResponse](t, resp.Body.Bytes())
	assert.False(t, env.Data.Disabled)
	assert.Empty(t, env.Data.Reason)

	// Hiding Naruto's only media cascades to him.
	require.NoError(t, ts.registry.DisableEntity(ctx, "g1", "anilist:20"))
	resp = ts.api.Get("/api/v1/tenants/g1/entities/anilist:17/visibility")
	require.Equal(t, http.StatusOK, resp.Code)
	env = decode[VisibilityResponse](t, resp.Body.Bytes())
	assert.Equal(t, VisibilityResponse{ID: "anilist:17", Disabled: true, Reason: "cascade"}, env.Data)

	resp = ts.api.Get("/api/v1/tenants/g1/entities/fan:pk1/visibility")
	require.Equal(t, http.StatusOK, resp.Code)
	env = decode[VisibilityResponse](t, resp.Body.Bytes())
	assert.Equal(t, "pack_not_enabled", env.Data.Reason)
}

func TestGetMediaCharacters(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/media/anilist:20/characters")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[MediaCharactersResponse](t, resp.Body.Bytes())
	assert.Equal(t, "anilist:20", env.Data.Media.ID)
	require.Len(t, env.Data.Characters, 2)
	assert.Equal(t, "anilist:17", env.Data.Characters[0].Character.ID)
	assert.Equal(t, "MAIN", env.Data.Characters[0].Role)
	assert.Equal(t, "anilist:41", env.Data.Characters[1].Character.ID)
	assert.Equal(t, "BACKGROUND", env.Data.Characters[1].Role)

	// A character id is not a media.
	resp = ts.api.Get("/api/v1/tenants/g1/media/anilist:17/characters")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetMediaRelations(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/media/anilist:21/relations")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[MediaRelationsResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Relations, 1)
	assert.Equal(t, "anilist:20", env.Data.Relations[0].Media.ID)
	assert.Equal(t, "OTHER", env.Data.Relations[0].Relation)

	require.NoError(t, ts.registry.DisableEntity(context.Background(), "g1", "anilist:20"))
	resp = ts.api.Get("/api/v1/tenants/g1/media/anilist:21/relations")
	require.Equal(t, http.StatusOK, resp.Code)
	env = decode[MediaRelationsResponse](t, resp.Body.Bytes())
	assert.Empty(t, env.Data.Relations)
}

func TestGetCharacterMedia(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/characters/anilist:40/media")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[CharacterMediaResponse](t, resp.Body.Bytes())
	assert.Equal(t, "anilist:40", env.Data.Character.ID)
	require.Len(t, env.Data.Media, 1)
	assert.Equal(t, "anilist:21", env.Data.Media[0].Media.ID)
	assert.Equal(t, "MAIN", env.Data.Media[0].Role)
}
