package catalog

import (
	"cmp"
	"slices"
	"sync"
)

// Library holds the community packs that are available for installation.
// It is the hand-off point between the install pipeline and tenants.
type Library struct {
	mu    sync.RWMutex
	packs map[string]*Pack
}

// NewLibrary creates a library holding packs.
func NewLibrary(packs ...*Pack) *Library {
	l := &Library{packs: make(map[string]*Pack, len(packs))}
	for _, p := range packs {
		l.packs[p.ID()] = p
	}
	return l
}

// Put adds p, replacing any earlier version with the same id.
// Tenants that already installed the old version keep it until they reinstall.
func (l *Library) Put(p *Pack) (replaced bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, replaced = l.packs[p.ID()]
	l.packs[p.ID()] = p
	return replaced
}

// Get returns the pack with the given id.
func (l *Library) Get(packID string) (*Pack, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.packs[packID]
	return p, ok
}

// Remove drops a pack from the library. Installed copies are unaffected.
func (l *Library) Remove(packID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.packs[packID]
	delete(l.packs, packID)
	return ok
}

// List returns every available pack ordered by id.
func (l *Library) List() []*Pack {
	l.mu.RLock()
	out := make([]*Pack, 0, len(l.packs))
	for _, p := range l.packs {
		out = append(out, p)
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Pack) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// Len returns the number of available packs.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.packs)
}
