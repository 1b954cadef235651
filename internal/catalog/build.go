package catalog

import (
	"fmt"
	"strings"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/textnorm"
	"github.com/packdex/packdex-server/internal/validation"
)

// BuildOptions tunes Build.
type BuildOptions struct {
	// Validator checks manifest field constraints. Nil uses a fresh validation.New().
	Validator *validation.Validator
	// KeepHTML leaves descriptions untouched instead of converting HTML to markdown.
	KeepHTML bool
}

// Build validates manifest and normalizes it into an immutable Pack.
// Any violation rejects the whole pack with an INVALID_PACK error whose details
// map each offending record path to a message.
func Build(manifest Manifest, kind domain.PackKind, opts BuildOptions) (*Pack, error) {
	if kind != domain.PackKindBuiltin && kind != domain.PackKindCommunity {
		return nil, errors.InvalidPackf("unknown pack kind %q", kind)
	}

	v := opts.Validator
	if v == nil {
		v = validation.New()
	}

	manifest.ID = strings.TrimSpace(manifest.ID)

	fields, err := v.Fields(manifest)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidPack, "manifest could not be validated")
	}
	if len(fields) > 0 {
		return nil, reject(manifest.ID, fields)
	}

	if kind == domain.PackKindCommunity && domain.IsReservedPackID(manifest.ID) {
		return nil, reject(manifest.ID, map[string]string{"id": "is reserved for a built-in catalog"})
	}

	b := &builder{
		packID:   manifest.ID,
		keepHTML: opts.KeepHTML,
		problems: make(map[string]string),
		seen:     make(map[string]string, len(manifest.Media)+len(manifest.Characters)),
		paths:    make(map[domain.Entity]string, len(manifest.Media)+len(manifest.Characters)),
	}

	media := b.media(manifest.Media)
	characters := b.characters(manifest.Characters)
	b.checkEdges(media, characters)

	if len(b.problems) > 0 {
		return nil, reject(manifest.ID, b.problems)
	}

	inheritPopularity(media, characters)

	return &Pack{
		info: Info{
			ID:             manifest.ID,
			Kind:           kind,
			Title:          strings.TrimSpace(manifest.Title),
			Description:    b.description(manifest.Description),
			Author:         strings.TrimSpace(manifest.Author),
			Image:          manifest.Image,
			URL:            manifest.URL,
			NSFW:           manifest.NSFW,
			MediaCount:     len(media),
			CharacterCount: len(characters),
		},
		store: newStore(manifest.ID, media, characters),
	}, nil
}

func reject(packID string, problems map[string]string) error {
	return errors.InvalidPackWithDetails(
		fmt.Sprintf("pack %q rejected: %s", packID, validation.Summary(problems)),
		problems,
	)
}

type builder struct {
	packID   string
	keepHTML bool
	problems map[string]string
	// seen maps local ids to the path of the record that first claimed them.
	seen     map[string]string
	paths    map[domain.Entity]string
}

func (b *builder) fail(path, format string, args ...any) {
	if _, ok := b.problems[path]; ok {
		return
	}
	b.problems[path] = fmt.Sprintf(format, args...)
}

func (b *builder) claim(path, localID string) {
	if localID == "" {
		b.fail(path+".id", "is required")
		return
	}
	if first, ok := b.seen[localID]; ok {
		b.fail(path+".id", "duplicates the id of %s", first)
		return
	}
	b.seen[localID] = path
}

func (b *builder) description(s string) string {
	if b.keepHTML {
		return strings.TrimSpace(s)
	}
	return htmlToMarkdown(s)
}

func (b *builder) reference(path, ref string) (domain.CompositeID, bool) {
	id := domain.ResolveReference(b.packID, ref)
	if _, err := domain.ParseCompositeID(id.String()); err != nil {
		b.fail(path, "is not a valid media reference")
		return "", false
	}
	return id, true
}

func (b *builder) media(raw []RawMedia) []*domain.Media {
	out := make([]*domain.Media, 0, len(raw))
	for i, r := range raw {
		path := fmt.Sprintf("media[%d]", i)
		localID := strings.TrimSpace(r.ID)
		b.claim(path, localID)

		titles := nonEmpty(r.Title.English, r.Title.Romaji)
		native := strings.TrimSpace(r.Title.Native)
		if len(titles) == 0 && native == "" {
			b.fail(path+".title", "at least one title is required")
			continue
		}

		m := &domain.Media{
			ID:          domain.NewCompositeID(b.packID, localID),
			Type:        domain.MediaType(r.Type),
			Format:      domain.MediaFormat(r.Format),
			Title:       domain.MediaTitle{Native: native},
			Description: b.description(r.Description),
			Popularity:  r.Popularity,
		}
		if m.Type == "" {
			m.Type = domain.MediaTypeAnime
		}
		if len(titles) > 0 {
			m.Title.Primary = titles[0]
		}
		if len(titles) > 1 && titles[1] != titles[0] {
			m.Title.Secondary = titles[1]
		}

		for j, rel := range r.Relations {
			id, ok := b.reference(fmt.Sprintf("%s.relations[%d].media", path, j), rel.Media)
			if !ok {
				continue
			}
			m.Relations = append(m.Relations, domain.MediaRelation{Media: id, Relation: domain.RelationType(rel.Relation)})
		}
		for _, l := range r.ExternalLinks {
			m.ExternalLinks = append(m.ExternalLinks, domain.ExternalLink{Site: strings.TrimSpace(l.Site), URL: l.URL})
		}
		if r.Trailer != nil {
			m.Trailer = &domain.Trailer{ID: r.Trailer.ID, Site: r.Trailer.Site}
		}
		m.Image = image(r.Image)

		b.paths[m] = path
		out = append(out, m)
	}
	return out
}

func (b *builder) characters(raw []RawCharacter) []*domain.Character {
	out := make([]*domain.Character, 0, len(raw))
	for i, r := range raw {
		path := fmt.Sprintf("characters[%d]", i)
		localID := strings.TrimSpace(r.ID)
		b.claim(path, localID)

		full := strings.TrimSpace(r.Name.Full)
		if full == "" {
			b.fail(path+".name.full", "is required")
			continue
		}

		c := &domain.Character{
			ID: domain.NewCompositeID(b.packID, localID),
			Name: domain.CharacterName{
				Full:        full,
				Native:      strings.TrimSpace(r.Name.Native),
				Alternative: nonEmpty(r.Name.Alternative...),
			},
			Description: b.description(r.Description),
			Gender:      strings.TrimSpace(r.Gender),
			Age:         strings.TrimSpace(r.Age),
			Image:       image(r.Image),
			Popularity:  r.Popularity,
		}

		for j, a := range r.Appearances {
			id, ok := b.reference(fmt.Sprintf("%s.appearances[%d].media", path, j), a.Media)
			if !ok {
				continue
			}
			role := domain.CharacterRole(a.Role)
			if role == "" {
				role = domain.RoleSupporting
			}
			c.Appearances = append(c.Appearances, domain.Appearance{Media: id, Role: role})
		}

		b.paths[c] = path
		out = append(out, c)
	}
	return out
}

// checkEdges rejects same-pack relations and appearances that do not point at a media of this pack.
// Cross-pack edges are left for lazy resolution.
func (b *builder) checkEdges(media []*domain.Media, characters []*domain.Character) {
	known := make(map[domain.CompositeID]struct{}, len(media))
	for _, m := range media {
		known[m.ID] = struct{}{}
	}

	dangling := func(id domain.CompositeID) bool {
		if id.PackID() != b.packID {
			return false
		}
		_, ok := known[id]
		return !ok
	}

	for _, m := range media {
		for j, rel := range m.Relations {
			if dangling(rel.Media) {
				b.fail(fmt.Sprintf("%s.relations[%d].media", b.paths[m], j), "references unknown media %q", rel.Media)
			}
		}
	}
	for _, c := range characters {
		for j, a := range c.Appearances {
			if dangling(a.Media) {
				b.fail(fmt.Sprintf("%s.appearances[%d].media", b.paths[c], j), "references unknown media %q", a.Media)
			}
		}
	}
}

// inheritPopularity gives characters without a popularity the highest popularity of their same-pack media.
func inheritPopularity(media []*domain.Media, characters []*domain.Character) {
	popularity := make(map[domain.CompositeID]int, len(media))
	for _, m := range media {
		popularity[m.ID] = m.Popularity
	}
	for _, c := range characters {
		if c.Popularity != 0 {
			continue
		}
		for _, a := range c.Appearances {
			if p, ok := popularity[a.Media]; ok && p > c.Popularity {
				c.Popularity = p
			}
		}
	}
}

func image(r *RawImage) *domain.Image {
	if r == nil {
		return nil
	}
	return &domain.Image{URL: r.URL, Color: r.Color}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func labelsOf(e domain.Entity) []string {
	return textnorm.Labels(e.DisplayNames()...)
}
