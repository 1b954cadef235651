package catalog

import (
	"iter"

	"github.com/packdex/packdex-server/internal/domain"
)

// Store is the read-only, indexed record set of one pack.
// It has no mutators; every method is safe for concurrent use.
type Store struct {
	packID string

	media      []*domain.Media
	characters []*domain.Character

	byLocal map[string]domain.Entity
	labels  map[string][]string

	// appearances indexes characters of this pack by the media they appear in.
	// Keys may belong to other packs.
	appearances map[domain.CompositeID][]*domain.Character
}

func newStore(packID string, media []*domain.Media, characters []*domain.Character) *Store {
	s := &Store{
		packID:      packID,
		media:       media,
		characters:  characters,
		byLocal:     make(map[string]domain.Entity, len(media)+len(characters)),
		labels:      make(map[string][]string, len(media)+len(characters)),
		appearances: make(map[domain.CompositeID][]*domain.Character),
	}

	for _, m := range media {
		s.byLocal[m.ID.LocalID()] = m
		s.labels[m.ID.LocalID()] = labelsOf(m)
	}
	for _, c := range characters {
		s.byLocal[c.ID.LocalID()] = c
		s.labels[c.ID.LocalID()] = labelsOf(c)
		for _, a := range c.Appearances {
			cast := s.appearances[a.Media]
			if len(cast) > 0 && cast[len(cast)-1] == c {
				continue
			}
			s.appearances[a.Media] = append(cast, c)
		}
	}

	return s
}

// PackID returns the id of the pack owning this store.
func (s *Store) PackID() string {
	return s.packID
}

// Get returns the record with the given local id, of either kind.
func (s *Store) Get(localID string) (domain.Entity, bool) {
	e, ok := s.byLocal[localID]
	return e, ok
}

// Media returns the media with the given local id.
func (s *Store) Media(localID string) (*domain.Media, bool) {
	m, ok := s.byLocal[localID].(*domain.Media)
	return m, ok
}

// Character returns the character with the given local id.
func (s *Store) Character(localID string) (*domain.Character, bool) {
	c, ok := s.byLocal[localID].(*domain.Character)
	return c, ok
}

// All yields every record of kind in manifest order. The sequence can be ranged over repeatedly.
func (s *Store) All(kind domain.EntityKind) iter.Seq[domain.Entity] {
	return func(yield func(domain.Entity) bool) {
		switch kind {
		case domain.KindMedia:
			for _, m := range s.media {
				if !yield(m) {
					return
				}
			}
		case domain.KindCharacter:
			for _, c := range s.characters {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// Len returns the number of records of kind.
func (s *Store) Len(kind domain.EntityKind) int {
	switch kind {
	case domain.KindMedia:
		return len(s.media)
	case domain.KindCharacter:
		return len(s.characters)
	default:
		return 0
	}
}

// Labels returns the normalized name or title variants of a record, used for fuzzy matching.
// The returned slice must not be modified.
func (s *Store) Labels(localID string) []string {
	return s.labels[localID]
}

// AppearancesOf returns the characters of this pack that appear in media.
// The returned slice must not be modified.
func (s *Store) AppearancesOf(media domain.CompositeID) []*domain.Character {
	return s.appearances[media]
}
