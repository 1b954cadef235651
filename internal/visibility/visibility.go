// Package visibility decides whether a record is visible to a tenant.
//
// A record is hidden when its pack is not enabled, when the tenant disabled it by hand,
// or, for characters, when none of the media it appears in is visible.
// Evaluation reads a single view and never mutates anything.
package visibility

import (
	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
)

// View is the tenant state visibility depends on. *registry.Snapshot satisfies it.
type View interface {
	Pack(packID string) (*catalog.Pack, bool)
	ManuallyDisabled(id domain.CompositeID) bool
}

// Reason explains why a record is hidden.
type Reason string

// Reasons, in the order they are checked.
const (
	ReasonNone           Reason = ""
	ReasonPackNotEnabled Reason = "pack_not_enabled"
	ReasonManual         Reason = "manual"
	ReasonMissing        Reason = "missing"
	ReasonCascade        Reason = "cascade"
)

// Verdict is the outcome of Evaluate.
type Verdict struct {
	Disabled bool   `json:"disabled"`
	Reason   Reason `json:"reason,omitempty"`
}

var enabled = Verdict{}

func hidden(r Reason) Verdict { return Verdict{Disabled: true, Reason: r} }

// Evaluate returns the visibility of id in view.
func Evaluate(view View, id domain.CompositeID) Verdict {
	e, v := own(view, id)
	if v.Disabled {
		return v
	}

	c, ok := e.(*domain.Character)
	if !ok {
		return enabled
	}

	// A character is visible while at least one of its media is.
	for _, a := range c.Appearances {
		m, mv := own(view, a.Media)
		if _, isMedia := m.(*domain.Media); isMedia && !mv.Disabled {
			return enabled
		}
	}
	return hidden(ReasonCascade)
}

// IsDisabled reports whether id is hidden in view.
func IsDisabled(view View, id domain.CompositeID) bool {
	return Evaluate(view, id).Disabled
}

// own applies the checks that depend only on the record itself.
func own(view View, id domain.CompositeID) (domain.Entity, Verdict) {
	p, ok := view.Pack(id.PackID())
	if !ok {
		return nil, hidden(ReasonPackNotEnabled)
	}
	if view.ManuallyDisabled(id) {
		return nil, hidden(ReasonManual)
	}
	e, ok := p.Store().Get(id.LocalID())
	if !ok {
		return nil, hidden(ReasonMissing)
	}
	return e, enabled
}
