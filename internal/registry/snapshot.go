package registry

import (
	"maps"
	"slices"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
)

// Snapshot is an immutable view of one tenant's enabled packs and manual disables.
// A call that reads one Snapshot sees a consistent state even while writers publish newer ones.
type Snapshot struct {
	tenantID string
	version  uint64

	// packs holds the built-in pack first, then community packs in install order.
	packs    []*catalog.Pack
	byID     map[string]*catalog.Pack
	installs []domain.PackInstall
	disabled map[domain.CompositeID]struct{}
	nextSeq  uint64
}

func baseSnapshot(tenantID string, builtin *catalog.Pack) *Snapshot {
	return &Snapshot{
		tenantID: tenantID,
		packs:    []*catalog.Pack{builtin},
		byID:     map[string]*catalog.Pack{builtin.ID(): builtin},
		disabled: map[domain.CompositeID]struct{}{},
		nextSeq:  1,
	}
}

// clone copies s for modification. Packs themselves are shared.
func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		tenantID: s.tenantID,
		version:  s.version + 1,
		packs:    slices.Clone(s.packs),
		byID:     maps.Clone(s.byID),
		installs: slices.Clone(s.installs),
		disabled: maps.Clone(s.disabled),
		nextSeq:  s.nextSeq,
	}
}

func (s *Snapshot) withPack(p *catalog.Pack, rec domain.PackInstall) *Snapshot {
	next := s.clone()
	next.packs = append(next.packs, p)
	next.byID[p.ID()] = p
	next.installs = append(next.installs, rec)
	if rec.Seq >= next.nextSeq {
		next.nextSeq = rec.Seq + 1
	}
	return next
}

func (s *Snapshot) withoutPack(packID string) *Snapshot {
	next := s.clone()
	next.packs = slices.DeleteFunc(next.packs, func(p *catalog.Pack) bool { return p.ID() == packID })
	delete(next.byID, packID)
	next.installs = slices.DeleteFunc(next.installs, func(r domain.PackInstall) bool { return r.PackID == packID })
	return next
}

func (s *Snapshot) withDisabled(id domain.CompositeID, disabled bool) *Snapshot {
	next := s.clone()
	if disabled {
		next.disabled[id] = struct{}{}
	} else {
		delete(next.disabled, id)
	}
	return next
}

// TenantID returns the tenant this snapshot belongs to.
func (s *Snapshot) TenantID() string { return s.tenantID }

// Version increases every time the tenant's state changes.
func (s *Snapshot) Version() uint64 { return s.version }

// Packs returns the enabled packs, built-in first then community packs in install order.
// It is never empty. The slice must not be modified.
func (s *Snapshot) Packs() []*catalog.Pack { return s.packs }

// Builtin returns the built-in pack.
func (s *Snapshot) Builtin() *catalog.Pack { return s.packs[0] }

// Pack returns the enabled pack with the given id.
func (s *Snapshot) Pack(packID string) (*catalog.Pack, bool) {
	p, ok := s.byID[packID]
	return p, ok
}

// CommunityCount returns the number of installed community packs.
func (s *Snapshot) CommunityCount() int { return len(s.packs) - 1 }

// Installs returns the install records of the community packs, in install order.
func (s *Snapshot) Installs() []domain.PackInstall { return slices.Clone(s.installs) }

// ManuallyDisabled reports whether the tenant disabled id by hand.
func (s *Snapshot) ManuallyDisabled(id domain.CompositeID) bool {
	_, ok := s.disabled[id]
	return ok
}

// Disabled returns the manually disabled ids in sorted order.
func (s *Snapshot) Disabled() []domain.CompositeID {
	return slices.Sorted(maps.Keys(s.disabled))
}

// Lookup returns the record id refers to if its pack is enabled and it exists, ignoring visibility.
func (s *Snapshot) Lookup(id domain.CompositeID) (domain.Entity, bool) {
	p, ok := s.byID[id.PackID()]
	if !ok {
		return nil, false
	}
	return p.Store().Get(id.LocalID())
}
