package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/config"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/validation"
)

// BuiltinPack is the catalog shared by every tenant.
type BuiltinPack struct {
	*catalog.Pack
}

// ProvideValidator provides the manifest validator shared by all pack builds.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideBuiltinPack loads the built-in catalog, or an empty one when no manifest is configured.
func ProvideBuiltinPack(i do.Injector) (*BuiltinPack, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)

	opts := catalog.BuildOptions{Validator: v}

	if cfg.Catalog.BuiltinManifest == "" {
		log.WithPack(cfg.Catalog.BuiltinID).Warn("No built-in catalog configured, starting with an empty one")
		p, err := catalog.Build(catalog.Manifest{ID: cfg.Catalog.BuiltinID}, domain.PackKindBuiltin, opts)
		if err != nil {
			return nil, err
		}
		return &BuiltinPack{Pack: p}, nil
	}

	p, err := catalog.LoadFile(cfg.Catalog.BuiltinManifest, domain.PackKindBuiltin, opts)
	if err != nil {
		return nil, fmt.Errorf("load built-in catalog: %w", err)
	}
	if p.ID() != cfg.Catalog.BuiltinID {
		return nil, fmt.Errorf("built-in catalog %s has id %q, expected %q",
			cfg.Catalog.BuiltinManifest, p.ID(), cfg.Catalog.BuiltinID)
	}

	info := p.Info()
	log.WithPack(info.ID).Info("Built-in catalog loaded",
		"media", info.MediaCount,
		"characters", info.CharacterCount,
	)

	return &BuiltinPack{Pack: p}, nil
}

// ProvideLibrary provides the set of community packs available for installation.
func ProvideLibrary(i do.Injector) (*catalog.Library, error) {
	return catalog.NewLibrary(), nil
}
