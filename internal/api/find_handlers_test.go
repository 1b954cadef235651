package api

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/api/dto"
)

func hitIDs(hits []dto.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Entity.ID)
	}
	return out
}

func TestFind_TextSearch(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/find?q=NARUTO&kind=character")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[FindResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, "found", env.Data.Status)
	assert.Equal(t, []string{"anilist:17"}, hitIDs(env.Data.Items))

	hit := env.Data.Items[0]
	assert.Equal(t, 100.0, hit.Score)
	assert.Equal(t, "character", hit.Entity.Kind)
	assert.Equal(t, "anilist", hit.Entity.Pack)
	assert.Equal(t, "Naruto Uzumaki", hit.Entity.Name)
	require.NotNil(t, hit.Entity.Character)
	assert.Nil(t, hit.Entity.Media)
}

func TestFind_NoMatches(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/find?q=zzzzzzzz")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[FindResponse](t, resp.Body.Bytes())
	assert.Equal(t, "not_found", env.Data.Status)
	assert.Empty(t, env.Data.Items)
	assert.False(t, env.Data.HasNext)

	// Blank text is a search that matches nothing.
	resp = ts.api.Get("/api/v1/tenants/g1/find?q=%20%20")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "not_found", decode[FindResponse](t, resp.Body.Bytes()).Data.Status)
}

func TestFind_Pagination(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tenants/g1/find?q=naruto&limit=1")
	require.Equal(t, http.StatusOK, resp.Code)
	first := decode[FindResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"anilist:20"}, hitIDs(first.Data.Items))
	require.True(t, first.Data.HasNext)
	require.NotEmpty(t, first.Data.Cursor)

	resp = ts.api.Get("/api/v1/tenants/g1/find?q=naruto&limit=1&cursor=" + url.QueryEscape(first.Data.Cursor))
	require.Equal(t, http.StatusOK, resp.Code)
	second := decode[FindResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"anilist:17"}, hitIDs(second.Data.Items))
	assert.False(t, second.Data.HasNext)
	assert.Empty(t, second.Data.Cursor)

	// A cursor only continues the query that produced it.
	resp = ts.api.Get("/api/v1/tenants/g1/find?q=luffy&cursor=" + url.QueryEscape(first.Data.Cursor))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestFind_ByID(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	resp := ts.api.Get("/api/v1/tenants/g1/find?id=anilist:40")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[FindResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"anilist:40"}, hitIDs(env.Data.Items))

	resp = ts.api.Get("/api/v1/tenants/g1/find?q=" + url.QueryEscape("id=anilist:21"))
	require.Equal(t, http.StatusOK, resp.Code)
	env = decode[FindResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"anilist:21"}, hitIDs(env.Data.Items))

	// Records of packs the tenant never enabled do not leak.
	resp = ts.api.Get("/api/v1/tenants/g1/find?id=fan:pk1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	notFound := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	require.NoError(t, ts.registry.DisableEntity(ctx, "g1", "anilist:40"))
	resp = ts.api.Get("/api/v1/tenants/g1/find?id=anilist:40")
	assert.Equal(t, http.StatusGone, resp.Code)
	gone := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "DISABLED", gone.Code)
	assert.Equal(t, map[string]any{"reason": "manual"}, gone.Details)
}

func TestFind_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"neither id nor q", "/api/v1/tenants/g1/find"},
		{"both id and q", "/api/v1/tenants/g1/find?id=anilist:17&q=naruto"},
		{"unknown kind", "/api/v1/tenants/g1/find?q=naruto&kind=staff"},
		{"malformed id", "/api/v1/tenants/g1/find?id=17"},
		{"empty explicit id", "/api/v1/tenants/g1/find?q=id%3D"},
		{"bad tenant", "/api/v1/tenants/-g1/find?q=naruto"},
		{"bad cursor", "/api/v1/tenants/g1/find?q=naruto&cursor=%25%25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			env := decode[any](t, resp.Body.Bytes())
			assert.False(t, env.Success)
			assert.Equal(t, "INVALID_REQUEST", env.Code)
		})
	}
}

func TestFind_RateLimitedPerTenant(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.FindRatePerMinute = 1 })

	resp := ts.api.Get("/api/v1/tenants/g1/find?q=luffy")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/tenants/g1/find?q=luffy")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "60", resp.Header().Get("Retry-After"))
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", env.Code)

	// Other tenants have their own budget.
	resp = ts.api.Get("/api/v1/tenants/g2/find?q=luffy")
	assert.Equal(t, http.StatusOK, resp.Code)
}
