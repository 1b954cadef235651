package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/search"
	"github.com/packdex/packdex-server/internal/service"
)

// testEnvelope decodes any envelope shape with a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// testServer wraps the API server with direct access to its collaborators.
type testServer struct {
	*Server
	api      humatest.TestAPI
	packs    *service.PackService
	registry *registry.Registry
}

// setupTestServer creates a server over the built-in fixture pack with an empty library.
func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()

	reg, err := registry.New(catalogtest.Builtin(t), registry.Options{})
	require.NoError(t, err)

	index, err := search.NewIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	packs := service.NewPackService(catalog.NewLibrary(), reg, index, nil)

	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	srv := NewServer(&Services{
		Resolver: resolver.New(reg, resolver.Options{}),
		Packs:    packs,
	}, options, nil)
	t.Cleanup(srv.Close)

	return &testServer{
		Server:   srv,
		api:      humatest.Wrap(t, srv.api),
		packs:    packs,
		registry: reg,
	}
}

// submitFan makes the fan fixture pack available for installation.
func (ts *testServer) submitFan(t *testing.T) {
	t.Helper()
	_, err := ts.packs.Submit(context.Background(), catalogtest.FanManifest())
	require.NoError(t, err)
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	assert.Equal(t, EnvelopeVersion, env.Version)
	return env
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Contains(t, env.Data.Components, "resolver")
	assert.Contains(t, env.Data.Components, "library")
}

func TestHealthCheck_WithoutServices(t *testing.T) {
	srv := NewServer(&Services{}, Options{}, nil)
	t.Cleanup(srv.Close)
	api := humatest.Wrap(t, srv.api)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", env.Data.Status)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.CORSOrigins = []string{"https://dash.example"} })

	resp := ts.api.Do(http.MethodOptions, "/api/v1/packs",
		"Origin: https://dash.example",
		"Access-Control-Request-Method: POST",
	)

	assert.Equal(t, "https://dash.example", resp.Header().Get("Access-Control-Allow-Origin"))
}
