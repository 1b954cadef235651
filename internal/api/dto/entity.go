// Package dto holds request and response bodies shared by API handlers.
package dto

import (
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/resolver"
)

// Entity is a media or character as returned by the API. Exactly one of Media and Character is set.
type Entity struct {
	ID         string            `json:"id" doc:"Composite id (pack:local)"`
	Kind       string            `json:"kind" enum:"media,character" doc:"Record kind"`
	Pack       string            `json:"pack" doc:"Pack that contributes the record"`
	Name       string            `json:"name" doc:"Primary display name"`
	Popularity int               `json:"popularity" doc:"Popularity score"`
	Media      *domain.Media     `json:"media,omitempty" doc:"Media record"`
	Character  *domain.Character `json:"character,omitempty" doc:"Character record"`
}

// FromEntity converts a domain entity. A nil entity yields nil.
func FromEntity(e domain.Entity) *Entity {
	if e == nil {
		return nil
	}

	id := e.CompositeID()
	out := &Entity{
		ID:         id.String(),
		Kind:       string(e.EntityKind()),
		Pack:       id.PackID(),
		Popularity: e.PopularityScore(),
	}
	if names := e.DisplayNames(); len(names) > 0 {
		out.Name = names[0]
	}

	switch v := e.(type) {
	case *domain.Media:
		out.Media = v
	case *domain.Character:
		out.Character = v
	}
	return out
}

// Hit is a ranked search result.
type Hit struct {
	Entity *Entity `json:"entity" doc:"Matched record"`
	Score  float64 `json:"score" doc:"Similarity 0-100"`
}

// FromHits converts resolver hits, keeping their order.
func FromHits(hits []resolver.Hit) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{Entity: FromEntity(h.Entity), Score: h.Score})
	}
	return out
}

// CastMember is a character listed under a media.
type CastMember struct {
	Character *Entity `json:"character" doc:"Character record"`
	Role      string  `json:"role,omitempty" doc:"MAIN, SUPPORTING or BACKGROUND"`
}

// FromCast converts a media cast listing.
func FromCast(cast []resolver.CastMember) []CastMember {
	out := make([]CastMember, 0, len(cast))
	for _, c := range cast {
		out = append(out, CastMember{Character: FromEntity(c.Character), Role: string(c.Role)})
	}
	return out
}

// MediaAppearance is a media listed under a character.
type MediaAppearance struct {
	Media *Entity `json:"media" doc:"Media record"`
	Role  string  `json:"role,omitempty" doc:"Role of the character in this media"`
}

// FromAppearances converts a character's media listing.
func FromAppearances(apps []resolver.MediaAppearance) []MediaAppearance {
	out := make([]MediaAppearance, 0, len(apps))
	for _, a := range apps {
		out = append(out, MediaAppearance{Media: FromEntity(a.Media), Role: string(a.Role)})
	}
	return out
}

// RelatedMedia is a media linked from another media.
type RelatedMedia struct {
	Media    *Entity `json:"media" doc:"Related media record"`
	Relation string  `json:"relation" doc:"Relation type, e.g. SEQUEL"`
}

// FromRelations converts a media relation listing.
func FromRelations(rels []resolver.RelatedMedia) []RelatedMedia {
	out := make([]RelatedMedia, 0, len(rels))
	for _, r := range rels {
		out = append(out, RelatedMedia{Media: FromEntity(r.Media), Relation: string(r.Relation)})
	}
	return out
}
