package providers

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
	"github.com/packdex/packdex-server/internal/config"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/service"
	"github.com/packdex/packdex-server/internal/validation"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "info"},
		Data:    config.DataConfig{BasePath: dir, Driver: driver},
		Catalog: config.CatalogConfig{PacksPath: filepath.Join(dir, "packs"), BuiltinID: domain.DefaultBuiltinPackID},
		Resolver: config.ResolverConfig{
			AcceptanceFloor: 65,
			MaxQueryRunes:   128,
			Workers:         2,
			DefaultPageSize: 25,
			MaxPageSize:     100,
		},
		Registry: config.RegistryConfig{MaxPacks: 20},
	}
}

// newTestInjector wires every provider except the HTTP server.
func newTestInjector(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger.New(logger.Config{Writer: io.Discard, Format: "json"}))
	do.Provide(injector, ProvideStore)
	do.Provide(injector, ProvideValidator)
	do.Provide(injector, ProvideBuiltinPack)
	do.Provide(injector, ProvideLibrary)
	do.Provide(injector, ProvideSearchIndex)
	do.Provide(injector, ProvideRegistry)
	do.Provide(injector, ProvideResolver)
	do.Provide(injector, ProvidePackService)
	return injector
}

func TestProvideValidator(t *testing.T) {
	v, err := ProvideValidator(do.New())
	require.NoError(t, err)
	assert.IsType(t, &validation.Validator{}, v)
}

func TestProvideBuiltinPack_Empty(t *testing.T) {
	injector := newTestInjector(testConfig(t, config.DriverBadger))
	t.Cleanup(func() { _ = injector.Shutdown() })

	builtin, err := do.Invoke[*BuiltinPack](injector)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBuiltinPackID, builtin.ID())
	assert.Equal(t, domain.PackKindBuiltin, builtin.Kind())
	assert.Zero(t, builtin.Info().MediaCount)
}

func TestProvideBuiltinPack_IDMismatch(t *testing.T) {
	cfg := testConfig(t, config.DriverBadger)
	cfg.Catalog.BuiltinID = "fable"
	cfg.Catalog.BuiltinManifest = writeBuiltin(t, cfg.Data.BasePath)

	injector := newTestInjector(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	_, err := do.Invoke[*BuiltinPack](injector)
	require.Error(t, err)
}

func writeJSON(t *testing.T, path string, m catalog.Manifest) {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func writeBuiltin(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "anilist.json")
	writeJSON(t, path, catalogtest.BuiltinManifest())
	return path
}

func TestWiring_RestoresTenantsAcrossRestarts(t *testing.T) {
	for _, driver := range []string{config.DriverBadger, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, driver)
			cfg.Catalog.BuiltinManifest = writeBuiltin(t, cfg.Data.BasePath)
			require.NoError(t, os.MkdirAll(cfg.Catalog.PacksPath, 0o755))
			writeJSON(t, filepath.Join(cfg.Catalog.PacksPath, "fan.json"), catalogtest.FanManifest())

			first := newTestInjector(cfg)
			packs := do.MustInvoke[*service.PackService](first)

			_, err := packs.Install(ctx, service.InstallPackRequest{TenantID: "g1", PackID: "fan", InstalledBy: "mod"})
			require.NoError(t, err)
			require.NoError(t, packs.SetDisabled(ctx, "g1", "anilist:21", true))
			_ = first.Shutdown()

			second := newTestInjector(cfg)
			t.Cleanup(func() { _ = second.Shutdown() })

			lib := do.MustInvoke[*catalog.Library](second)
			assert.Equal(t, 1, lib.Len())

			res := do.MustInvoke[*resolver.Resolver](second)
			r, err := res.ResolveByID(ctx, "g1", "fan:pk1")
			require.NoError(t, err)
			assert.Equal(t, resolver.StatusFound, r.Status)
			assert.True(t, res.IsDisabled("g1", "anilist:21"))
			assert.False(t, res.IsDisabled("g2", "anilist:21"))
		})
	}
}
