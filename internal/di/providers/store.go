package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/packdex/packdex-server/internal/config"
	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/store"
	"github.com/packdex/packdex-server/internal/store/sqlite"
)

// tenantStore is what both storage drivers offer.
type tenantStore interface {
	registry.Persistence
	Close() error
}

// StoreHandle wraps the tenant store with shutdown capability.
type StoreHandle struct {
	tenantStore
	Driver string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the tenant configuration store selected by the data driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var (
		s   tenantStore
		err error
	)
	switch cfg.Data.Driver {
	case config.DriverSQLite:
		s, err = sqlite.Open(filepath.Join(cfg.Data.BasePath, "tenants.db"), log.Logger)
	default:
		s, err = store.New(filepath.Join(cfg.Data.BasePath, "tenants"), log.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Data.Driver, err)
	}

	log.WithField("driver", cfg.Data.Driver).Info("Tenant store opened", "path", cfg.Data.BasePath)

	return &StoreHandle{tenantStore: s, Driver: cfg.Data.Driver}, nil
}
