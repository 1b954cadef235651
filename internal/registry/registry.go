// Package registry tracks which packs each tenant has enabled and which records it disabled by hand.
//
// Every tenant's state lives in an immutable Snapshot published through an atomic pointer.
// Readers load the pointer and never lock; writers serialize on a mutex, persist the change,
// then publish a modified copy.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/id"
	"github.com/packdex/packdex-server/internal/logger"
)

// DefaultMaxPacks is the community pack quota when Options.MaxPacks is zero.
const DefaultMaxPacks = 20

// Persistence stores tenant state so it survives restarts.
type Persistence interface {
	SaveInstall(ctx context.Context, rec domain.PackInstall) error
	DeleteInstall(ctx context.Context, tenantID, packID string) error
	SetDisabled(ctx context.Context, tenantID string, entityID domain.CompositeID, disabled bool) error
	LoadTenants(ctx context.Context) ([]domain.TenantState, error)
}

// PackSource provides packs by id, typically a *catalog.Library.
type PackSource interface {
	Get(packID string) (*catalog.Pack, bool)
}

// Options configures a Registry.
type Options struct {
	// MaxPacks caps community packs per tenant. Zero means DefaultMaxPacks; negative means unlimited.
	MaxPacks int
	// Persistence records installs and disables. Nil keeps state in memory only.
	Persistence Persistence
	Logger      *slog.Logger
	// Now and NewID default to time.Now and id.Generate.
	Now   func() time.Time
	NewID id.Generator
}

// Registry is the per-tenant pack registry.
type Registry struct {
	builtin *catalog.Pack
	opts    Options
	logger  *slog.Logger

	// tenants maps tenant id to *atomic.Pointer[Snapshot].
	tenants sync.Map

	// mu serializes writers and guards refs.
	mu sync.Mutex
	// refs counts the tenants holding each loaded community pack.
	refs map[*catalog.Pack]int
	// latest is the most recently installed loaded pack per pack id.
	latest map[string]*catalog.Pack
}

// New creates a registry in which every tenant starts with only builtin enabled.
func New(builtin *catalog.Pack, opts Options) (*Registry, error) {
	if builtin == nil {
		return nil, errors.InvalidRequest("built-in pack is required")
	}
	if builtin.Kind() != domain.PackKindBuiltin {
		return nil, errors.InvalidRequestf("pack %q is not a built-in pack", builtin.ID())
	}
	if opts.MaxPacks == 0 {
		opts.MaxPacks = DefaultMaxPacks
	}
	if opts.Persistence == nil {
		opts.Persistence = nopPersistence{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.Generate
	}
	return &Registry{
		builtin: builtin,
		opts:    opts,
		logger:  logger.OrDiscard(opts.Logger),
		refs:    make(map[*catalog.Pack]int),
		latest:  make(map[string]*catalog.Pack),
	}, nil
}

// Builtin returns the built-in pack shared by all tenants.
func (r *Registry) Builtin() *catalog.Pack {
	return r.builtin
}

// Snapshot returns the current state of tenantID. Unknown tenants get the built-in pack only.
func (r *Registry) Snapshot(tenantID string) *Snapshot {
	if v, ok := r.tenants.Load(tenantID); ok {
		if s := v.(*atomic.Pointer[Snapshot]).Load(); s != nil {
			return s
		}
	}
	return baseSnapshot(tenantID, r.builtin)
}

// EnabledPacks returns the packs enabled for tenantID, built-in first.
func (r *Registry) EnabledPacks(tenantID string) []*catalog.Pack {
	return r.Snapshot(tenantID).Packs()
}

// slot returns the tenant's pointer, creating it. Callers hold r.mu.
func (r *Registry) slot(tenantID string) *atomic.Pointer[Snapshot] {
	v, _ := r.tenants.LoadOrStore(tenantID, new(atomic.Pointer[Snapshot]))
	return v.(*atomic.Pointer[Snapshot])
}

// current returns the tenant's snapshot for modification. Callers hold r.mu.
func (r *Registry) current(tenantID string) (*atomic.Pointer[Snapshot], *Snapshot) {
	p := r.slot(tenantID)
	s := p.Load()
	if s == nil {
		s = baseSnapshot(tenantID, r.builtin)
	}
	return p, s
}

// Install enables a community pack for tenantID.
// It fails with DUPLICATE_PACK when a pack with the same id is already enabled (the built-in id included)
// and with QUOTA_EXCEEDED when the tenant is at its community pack limit.
// The install record is persisted before the new snapshot is published.
func (r *Registry) Install(ctx context.Context, tenantID string, pack *catalog.Pack, by string) (domain.PackInstall, error) {
	if pack == nil {
		panic("registry: Install called with nil pack")
	}
	if tenantID == "" {
		return domain.PackInstall{}, errors.InvalidRequest("tenant id is required")
	}
	if pack.Kind() != domain.PackKindCommunity && pack.ID() != r.builtin.ID() {
		return domain.PackInstall{}, errors.InvalidRequestf("pack %q is not a community pack", pack.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ptr, cur := r.current(tenantID)

	if _, ok := cur.Pack(pack.ID()); ok {
		return domain.PackInstall{}, errors.DuplicatePackf("pack %q is already installed", pack.ID())
	}
	if r.opts.MaxPacks > 0 && cur.CommunityCount() >= r.opts.MaxPacks {
		return domain.PackInstall{}, errors.QuotaExceededf("tenant already has %d community packs", cur.CommunityCount())
	}

	installID, err := r.opts.NewID(id.PrefixInstall)
	if err != nil {
		return domain.PackInstall{}, errors.Wrap(err, errors.CodeInternal, "failed to generate install id")
	}

	rec := domain.PackInstall{
		ID:          installID,
		TenantID:    tenantID,
		PackID:      pack.ID(),
		Seq:         cur.nextSeq,
		InstalledAt: r.opts.Now().UTC(),
		InstalledBy: by,
	}

	if err := r.opts.Persistence.SaveInstall(ctx, rec); err != nil {
		return domain.PackInstall{}, errors.Wrap(err, errors.CodeInternal, "failed to persist install")
	}

	ptr.Store(cur.withPack(pack, rec))
	r.acquire(pack)

	r.logger.Info("pack installed",
		"tenant_id", tenantID,
		"pack_id", pack.ID(),
		"install_id", rec.ID,
		"by", by,
	)

	return rec, nil
}

// InstallLoaded installs the most recently loaded copy of packID, as returned by Lookup.
func (r *Registry) InstallLoaded(ctx context.Context, tenantID, packID, by string) (domain.PackInstall, error) {
	pack, ok := r.Lookup(packID)
	if !ok {
		return domain.PackInstall{}, errors.PackNotFoundf("pack %q is not loaded", packID)
	}
	return r.Install(ctx, tenantID, pack, by)
}

// Uninstall disables a community pack for tenantID.
// The pack's records immediately stop resolving for this tenant; other tenants are unaffected.
func (r *Registry) Uninstall(ctx context.Context, tenantID, packID string) error {
	if tenantID == "" {
		return errors.InvalidRequest("tenant id is required")
	}
	if packID == r.builtin.ID() {
		return errors.InvalidRequestf("the built-in pack %q cannot be uninstalled", packID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ptr, cur := r.current(tenantID)

	pack, ok := cur.Pack(packID)
	if !ok {
		return errors.PackNotFoundf("pack %q is not installed", packID)
	}

	if err := r.opts.Persistence.DeleteInstall(ctx, tenantID, packID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to persist uninstall")
	}

	ptr.Store(cur.withoutPack(packID))
	r.release(pack)

	r.logger.Info("pack uninstalled",
		"tenant_id", tenantID,
		"pack_id", packID,
	)

	return nil
}

// DisableEntity hides entityID from tenantID. Disabling twice is a no-op.
func (r *Registry) DisableEntity(ctx context.Context, tenantID string, entityID domain.CompositeID) error {
	return r.setDisabled(ctx, tenantID, entityID, true)
}

// EnableEntity removes a manual disable. Enabling a record that was not disabled is a no-op.
func (r *Registry) EnableEntity(ctx context.Context, tenantID string, entityID domain.CompositeID) error {
	return r.setDisabled(ctx, tenantID, entityID, false)
}

func (r *Registry) setDisabled(ctx context.Context, tenantID string, entityID domain.CompositeID, disabled bool) error {
	if tenantID == "" {
		return errors.InvalidRequest("tenant id is required")
	}
	if _, err := domain.ParseCompositeID(entityID.String()); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ptr, cur := r.current(tenantID)
	if cur.ManuallyDisabled(entityID) == disabled {
		return nil
	}

	if err := r.opts.Persistence.SetDisabled(ctx, tenantID, entityID, disabled); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to persist visibility change")
	}

	ptr.Store(cur.withDisabled(entityID, disabled))

	r.logger.Info("entity visibility changed",
		"tenant_id", tenantID,
		"entity_id", entityID,
		"disabled", disabled,
	)

	return nil
}

// Restore rebuilds tenant state from persistence. Installs whose pack is not available from
// source are skipped with a warning and stay persisted, so they come back once the pack does.
// Restore replaces whatever state the registry held for the restored tenants.
func (r *Registry) Restore(ctx context.Context, source PackSource) error {
	states, err := r.opts.Persistence.LoadTenants(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to load tenant state")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var restored, skipped int
	for _, st := range states {
		if err := ctx.Err(); err != nil {
			return err
		}

		ptr, old := r.current(st.TenantID)
		for _, p := range old.packs[1:] {
			r.release(p)
		}

		snap := baseSnapshot(st.TenantID, r.builtin)
		for _, rec := range sortedInstalls(st.Installs) {
			// Skipped installs still hold their Seq.
			if rec.Seq >= snap.nextSeq {
				snap.nextSeq = rec.Seq + 1
			}
			pack, ok := source.Get(rec.PackID)
			if !ok || pack.Kind() != domain.PackKindCommunity {
				skipped++
				r.logger.Warn("installed pack unavailable, skipping",
					"tenant_id", st.TenantID,
					"pack_id", rec.PackID,
				)
				continue
			}
			if _, dup := snap.Pack(pack.ID()); dup {
				continue
			}
			snap = snap.withPack(pack, rec)
			r.acquire(pack)
		}
		for _, d := range st.Disabled {
			snap = snap.withDisabled(d, true)
		}
		snap.version = old.version + 1

		ptr.Store(snap)
		restored++
	}

	r.logger.Info("registry restored",
		"tenants", restored,
		"skipped_installs", skipped,
	)
	return nil
}

// Lookup returns the most recently installed copy of packID still held by some tenant.
func (r *Registry) Lookup(packID string) (*catalog.Pack, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.latest[packID]
	return p, ok
}

// Refs returns how many tenants currently hold pack.
func (r *Registry) Refs(pack *catalog.Pack) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[pack]
}

// Loaded returns the ids of community packs held by at least one tenant, sorted.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.latest)
}

// acquire and release maintain refs and latest. Callers hold r.mu.
func (r *Registry) acquire(p *catalog.Pack) {
	r.refs[p]++
	r.latest[p.ID()] = p
}

func (r *Registry) release(p *catalog.Pack) {
	r.refs[p]--
	if r.refs[p] > 0 {
		return
	}
	delete(r.refs, p)

	if r.latest[p.ID()] != p {
		return
	}
	delete(r.latest, p.ID())
	// Fall back to an older copy still held by another tenant.
	for other := range r.refs {
		if other.ID() == p.ID() {
			r.latest[p.ID()] = other
			return
		}
	}
}
