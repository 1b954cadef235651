package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	domainerrors "github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/search"
	"github.com/packdex/packdex-server/internal/validation"
)

// PackService orchestrates the pack library, the tenant registry, and the pack directory.
type PackService struct {
	library   *catalog.Library
	registry  *registry.Registry
	directory *search.Index
	logger    *slog.Logger
	validator *validation.Validator
}

// NewPackService creates a new pack service.
func NewPackService(library *catalog.Library, reg *registry.Registry, directory *search.Index, logger *slog.Logger) *PackService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PackService{
		library:   library,
		registry:  reg,
		directory: directory,
		logger:    logger,
		validator: validation.New(),
	}
}

// SubmitResult describes a pack accepted into the library.
type SubmitResult struct {
	Info catalog.Info `json:"pack"`
	// Replaced is true when an earlier version with the same id was in the library.
	Replaced bool `json:"replaced"`
}

// Submit validates a community manifest and makes the pack available for installation.
// Tenants that installed an earlier version keep it until they reinstall.
func (s *PackService) Submit(ctx context.Context, manifest catalog.Manifest) (*SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pack, err := catalog.Build(manifest, domain.PackKindCommunity, catalog.BuildOptions{Validator: s.validator})
	if err != nil {
		return nil, err
	}

	replaced := s.library.Put(pack)
	if err := s.directory.IndexPack(pack); err != nil {
		// The pack is installable; only directory search misses it.
		s.logger.Warn("failed to index pack", "pack_id", pack.ID(), "error", err)
	}

	info := pack.Info()
	s.logger.Info("pack submitted",
		"pack_id", info.ID,
		"media", info.MediaCount,
		"characters", info.CharacterCount,
		"replaced", replaced,
	)

	return &SubmitResult{Info: info, Replaced: replaced}, nil
}

// SubmitFrom decodes a manifest from r and submits it.
func (s *PackService) SubmitFrom(ctx context.Context, r io.Reader, format catalog.Format) (*SubmitResult, error) {
	manifest, err := catalog.DecodeManifest(r, format)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, manifest)
}

// LoadDirectory loads every manifest in dir into the library and rebuilds the directory index.
// Manifests that fail to load are reported in the returned error; the rest are still loaded.
// A missing dir loads nothing.
func (s *PackService) LoadDirectory(ctx context.Context, dir string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	packs, loadErr := catalog.LoadDir(dir, catalog.BuildOptions{Validator: s.validator})
	if loadErr != nil && errors.Is(loadErr, fs.ErrNotExist) && len(packs) == 0 {
		s.logger.Info("packs directory not found, starting with an empty library", "path", dir)
		return 0, nil
	}

	for _, p := range packs {
		s.library.Put(p)
	}
	if err := s.directory.Reset(s.library.List()); err != nil {
		return len(packs), fmt.Errorf("rebuild pack directory: %w", err)
	}

	s.logger.Info("packs loaded", "path", dir, "packs", len(packs))
	return len(packs), loadErr
}

// Available searches the packs that can be installed.
func (s *PackService) Available(ctx context.Context, params search.Params) (*search.Result, error) {
	return s.directory.Search(ctx, params)
}

// Get returns the metadata of an available pack.
func (s *PackService) Get(packID string) (catalog.Info, error) {
	pack, ok := s.library.Get(packID)
	if !ok {
		return catalog.Info{}, domainerrors.PackNotFoundf("pack %q is not available", packID)
	}
	return pack.Info(), nil
}

// Withdraw removes a pack from the library. Tenants that installed it keep their copy.
func (s *PackService) Withdraw(ctx context.Context, packID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.library.Remove(packID) {
		return domainerrors.PackNotFoundf("pack %q is not available", packID)
	}
	if err := s.directory.Remove(packID); err != nil {
		s.logger.Warn("failed to drop pack from directory", "pack_id", packID, "error", err)
	}
	s.logger.Info("pack withdrawn", "pack_id", packID)
	return nil
}

// InstallPackRequest contains fields for enabling a pack for a tenant.
type InstallPackRequest struct {
	TenantID    string `json:"tenant_id" validate:"required,tenantid"`
	PackID      string `json:"pack_id" validate:"required,packid"`
	InstalledBy string `json:"installed_by" validate:"max=128"`
}

// Install enables an available community pack for a tenant.
// A pack withdrawn from the library can still be installed while another tenant holds it.
func (s *PackService) Install(ctx context.Context, req InstallPackRequest) (domain.PackInstall, error) {
	if err := s.validator.Validate(req); err != nil {
		return domain.PackInstall{}, err
	}

	if req.PackID == s.registry.Builtin().ID() {
		return domain.PackInstall{}, domainerrors.DuplicatePackf("pack %q is the built-in catalog and always enabled", req.PackID)
	}

	if pack, ok := s.library.Get(req.PackID); ok {
		return s.registry.Install(ctx, req.TenantID, pack, req.InstalledBy)
	}
	return s.registry.InstallLoaded(ctx, req.TenantID, req.PackID, req.InstalledBy)
}

// Uninstall disables a community pack for a tenant.
func (s *PackService) Uninstall(ctx context.Context, tenantID, packID string) error {
	if err := s.checkTenant(tenantID); err != nil {
		return err
	}
	return s.registry.Uninstall(ctx, tenantID, packID)
}

// InstalledPack is an enabled pack with its install record. The built-in pack has none.
type InstalledPack struct {
	catalog.Info
	Install *domain.PackInstall `json:"install,omitempty"`
}

// Installed lists a tenant's enabled packs, built-in first, then in install order.
func (s *PackService) Installed(_ context.Context, tenantID string) ([]InstalledPack, error) {
	if err := s.checkTenant(tenantID); err != nil {
		return nil, err
	}

	snap := s.registry.Snapshot(tenantID)
	records := make(map[string]domain.PackInstall)
	for _, rec := range snap.Installs() {
		records[rec.PackID] = rec
	}

	out := make([]InstalledPack, 0, len(snap.Packs()))
	for _, p := range snap.Packs() {
		item := InstalledPack{Info: p.Info()}
		if rec, ok := records[p.ID()]; ok {
			item.Install = &rec
		}
		out = append(out, item)
	}
	return out, nil
}

// SetDisabled manually disables or re-enables a record for a tenant.
func (s *PackService) SetDisabled(ctx context.Context, tenantID, entityID string, disabled bool) error {
	if err := s.checkTenant(tenantID); err != nil {
		return err
	}

	id, err := domain.ParseCompositeID(entityID)
	if err != nil {
		return err
	}

	if disabled {
		return s.registry.DisableEntity(ctx, tenantID, id)
	}
	return s.registry.EnableEntity(ctx, tenantID, id)
}

// Disabled lists the records a tenant disabled by hand.
func (s *PackService) Disabled(_ context.Context, tenantID string) ([]domain.CompositeID, error) {
	if err := s.checkTenant(tenantID); err != nil {
		return nil, err
	}
	return s.registry.Snapshot(tenantID).Disabled(), nil
}

// Restore reloads tenant state from persistence against the current library.
func (s *PackService) Restore(ctx context.Context) error {
	return s.registry.Restore(ctx, s.library)
}

func (s *PackService) checkTenant(tenantID string) error {
	if !domain.ValidTenantID(tenantID) {
		return domainerrors.InvalidRequestf("invalid tenant id %q", tenantID)
	}
	return nil
}

// LibraryStats summarizes the library for health checks.
type LibraryStats struct {
	Available int    `json:"available"`
	Indexed   uint64 `json:"indexed"`
	Loaded    int    `json:"loaded"`
}

// Stats reports library and directory sizes. An error means the directory index is unreadable.
func (s *PackService) Stats() (LibraryStats, error) {
	stats := LibraryStats{
		Available: s.library.Len(),
		Loaded:    len(s.registry.Loaded()),
	}
	indexed, err := s.directory.Count()
	if err != nil {
		return stats, err
	}
	stats.Indexed = indexed
	return stats, nil
}
