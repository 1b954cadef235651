package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/config"
	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/service"
)

// ProvideRegistry provides the per-tenant pack registry backed by the tenant store.
func ProvideRegistry(i do.Injector) (*registry.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	builtin := do.MustInvoke[*BuiltinPack](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return registry.New(builtin.Pack, registry.Options{
		MaxPacks:    cfg.Registry.MaxPacks,
		Persistence: storeHandle,
		Logger:      log.Logger,
	})
}

// ProvideResolver provides the entity resolver.
func ProvideResolver(i do.Injector) (*resolver.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reg := do.MustInvoke[*registry.Registry](i)

	rc := cfg.Resolver
	timeBudget := rc.TimeBudget
	if timeBudget == 0 {
		// Zero in config means no deadline.
		timeBudget = -1
	}

	return resolver.New(reg, resolver.Options{
		AcceptanceFloor: rc.AcceptanceFloor,
		MaxQueryRunes:   rc.MaxQueryRunes,
		ItemBudget:      rc.ItemBudget,
		TimeBudget:      timeBudget,
		Workers:         rc.Workers,
		DefaultPageSize: rc.DefaultPageSize,
		MaxPageSize:     rc.MaxPageSize,
		Logger:          log.Logger,
	}), nil
}

// ProvidePackService provides the pack service, loading the packs directory and
// restoring tenant configuration before the server accepts requests.
func ProvidePackService(i do.Injector) (*service.PackService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*catalog.Library](i)
	reg := do.MustInvoke[*registry.Registry](i)
	index := do.MustInvoke[*SearchIndexHandle](i)

	svc := service.NewPackService(library, reg, index.Index, log.Logger)

	ctx := context.Background()
	if _, err := svc.LoadDirectory(ctx, cfg.Catalog.PacksPath); err != nil {
		// Broken manifests are skipped; the rest of the directory still loads.
		log.WithError(err).Warn("Some community packs failed to load", "path", cfg.Catalog.PacksPath)
	}

	if err := svc.Restore(ctx); err != nil {
		return nil, err
	}

	return svc, nil
}
