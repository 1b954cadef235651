// Package search provides the pack directory: a full-text index over the
// community packs available for installation, built on Bleve.
package search

import (
	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
)

// maxMediaTitles caps how many media titles of one pack are indexed.
const maxMediaTitles = 200

// Document is the indexed form of one pack.
//
// Media titles are denormalized into the pack document so that searching for
// a show finds the packs that extend it.
type Document struct {
	ID             string
	Kind           domain.PackKind
	Title          string
	Description    string
	Author         string
	MediaTitles    []string
	NSFW           bool
	MediaCount     int
	CharacterCount int
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":              d.ID,
		"kind":            string(d.Kind),
		"title":           d.Title,
		"nsfw":            d.NSFW,
		"media_count":     d.MediaCount,
		"character_count": d.CharacterCount,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if len(d.MediaTitles) > 0 {
		m["media_titles"] = d.MediaTitles
	}

	return m
}

// PackToDocument converts a pack to a Document.
func PackToDocument(p *catalog.Pack) *Document {
	info := p.Info()
	doc := &Document{
		ID:             info.ID,
		Kind:           info.Kind,
		Title:          info.Title,
		Description:    info.Description,
		Author:         info.Author,
		NSFW:           info.NSFW,
		MediaCount:     info.MediaCount,
		CharacterCount: info.CharacterCount,
	}
	if doc.Title == "" {
		doc.Title = info.ID
	}

	for e := range p.Store().All(domain.KindMedia) {
		if len(doc.MediaTitles) == maxMediaTitles {
			break
		}
		if names := e.DisplayNames(); len(names) > 0 {
			doc.MediaTitles = append(doc.MediaTitles, names[0])
		}
	}

	return doc
}
