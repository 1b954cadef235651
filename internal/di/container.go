// Package di provides dependency injection configuration for the Packdex server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/config"
	"github.com/packdex/packdex-server/internal/di/providers"
	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/service"
	"github.com/packdex/packdex-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Catalog layer
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideBuiltinPack)
	do.Provide(injector, providers.ProvideLibrary)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Tenants and resolution
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvidePackService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order.
// The HTTP server is invoked last so requests only arrive after tenant state is restored.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*validation.Validator](injector)
	if _, err := do.Invoke[*providers.BuiltinPack](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*catalog.Library](injector)
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	if _, err := do.Invoke[*registry.Registry](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*resolver.Resolver](injector)
	if _, err := do.Invoke[*service.PackService](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
