package resolver

import (
	"cmp"
	"context"
	"slices"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/visibility"
)

// CastMember is a character appearing in a media, with its role there.
type CastMember struct {
	Character *domain.Character
	Role      domain.CharacterRole
}

// MediaAppearance is a media a character appears in.
type MediaAppearance struct {
	Media *domain.Media
	Role  domain.CharacterRole
}

// RelatedMedia is a media linked from another media.
type RelatedMedia struct {
	Media    *domain.Media
	Relation domain.RelationType
}

// MediaCharacters lists the visible characters of every enabled pack that appear in mediaID,
// ordered by role (MAIN first), popularity descending, then composite id.
// The cast is only listed when the media itself resolves as found.
func (r *Resolver) MediaCharacters(ctx context.Context, tenantID, mediaID string) (Resolution, []CastMember, error) {
	view, res, err := r.resolveKind(ctx, tenantID, mediaID, domain.KindMedia)
	if err != nil || res.Status != StatusFound {
		return res, nil, err
	}
	id := res.Entity.CompositeID()

	var cast []CastMember
	for _, p := range view.Packs() {
		for _, c := range p.Store().AppearancesOf(id) {
			if visibility.IsDisabled(view, c.ID) {
				continue
			}
			cast = append(cast, CastMember{Character: c, Role: roleIn(c, id)})
		}
	}

	slices.SortFunc(cast, func(a, b CastMember) int {
		if c := cmp.Compare(a.Role.Rank(), b.Role.Rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Character.Popularity, a.Character.Popularity); c != 0 {
			return c
		}
		return cmp.Compare(a.Character.ID, b.Character.ID)
	})

	return res, cast, nil
}

// CharacterMedia lists the visible media a character appears in, in manifest order.
func (r *Resolver) CharacterMedia(ctx context.Context, tenantID, characterID string) (Resolution, []MediaAppearance, error) {
	view, res, err := r.resolveKind(ctx, tenantID, characterID, domain.KindCharacter)
	if err != nil || res.Status != StatusFound {
		return res, nil, err
	}

	c, _ := res.Entity.(*domain.Character)
	var out []MediaAppearance
	for _, a := range c.Appearances {
		if m, ok := visibleMedia(view, a.Media); ok {
			out = append(out, MediaAppearance{Media: m, Role: a.Role})
		}
	}
	return res, out, nil
}

// MediaRelations lists the visible media related to mediaID, in manifest order.
func (r *Resolver) MediaRelations(ctx context.Context, tenantID, mediaID string) (Resolution, []RelatedMedia, error) {
	view, res, err := r.resolveKind(ctx, tenantID, mediaID, domain.KindMedia)
	if err != nil || res.Status != StatusFound {
		return res, nil, err
	}

	m, _ := res.Entity.(*domain.Media)
	var out []RelatedMedia
	for _, rel := range m.Relations {
		if related, ok := visibleMedia(view, rel.Media); ok {
			out = append(out, RelatedMedia{Media: related, Relation: rel.Relation})
		}
	}
	return res, out, nil
}

// resolveKind resolves id in one snapshot and treats a record of the wrong kind as not found.
func (r *Resolver) resolveKind(ctx context.Context, tenantID, id string, kind domain.EntityKind) (View, Resolution, error) {
	if tenantID == "" {
		return nil, Resolution{}, errors.InvalidRequest("tenant id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, Resolution{}, err
	}

	view := r.snapshots.Snapshot(tenantID)
	res, err := resolveIn(view, id)
	if err != nil {
		return nil, Resolution{}, err
	}
	if res.Entity != nil && res.Entity.EntityKind() != kind {
		return view, Resolution{Status: StatusNotFound}, nil
	}
	return view, res, nil
}

func visibleMedia(view View, id domain.CompositeID) (*domain.Media, bool) {
	p, ok := view.Pack(id.PackID())
	if !ok {
		return nil, false
	}
	m, ok := p.Store().Media(id.LocalID())
	if !ok || visibility.IsDisabled(view, id) {
		return nil, false
	}
	return m, true
}

func roleIn(c *domain.Character, media domain.CompositeID) domain.CharacterRole {
	for _, a := range c.Appearances {
		if a.Media == media {
			return a.Role
		}
	}
	return domain.RoleSupporting
}
