package catalog

import (
	"github.com/packdex/packdex-server/internal/domain"
)

// Info is the descriptive metadata of a pack, carried over from its manifest.
type Info struct {
	ID             string          `json:"id"`
	Kind           domain.PackKind `json:"kind"`
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	Author         string          `json:"author,omitempty"`
	Image          string          `json:"image,omitempty"`
	URL            string          `json:"url,omitempty"`
	NSFW           bool            `json:"nsfw"`
	MediaCount     int             `json:"media_count"`
	CharacterCount int             `json:"character_count"`
}

// Pack is a validated, immutable pack: its metadata and its entity store.
type Pack struct {
	info  Info
	store *Store
}

// ID returns the pack id, the prefix of every composite id the pack owns.
func (p *Pack) ID() string { return p.info.ID }

// Kind reports whether this is the built-in catalog or a community pack.
func (p *Pack) Kind() domain.PackKind { return p.info.Kind }

// Info returns the pack metadata.
func (p *Pack) Info() Info { return p.info }

// Store returns the pack's records.
func (p *Pack) Store() *Store { return p.store }

// Lookup returns the record id refers to, if id belongs to this pack and the record exists.
func (p *Pack) Lookup(id domain.CompositeID) (domain.Entity, bool) {
	if id.PackID() != p.info.ID {
		return nil, false
	}
	return p.store.Get(id.LocalID())
}
