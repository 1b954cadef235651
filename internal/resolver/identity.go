package resolver

import (
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/visibility"
)

// Status is the outcome of resolving an id.
type Status string

// Resolution statuses.
const (
	StatusFound    Status = "found"
	StatusDisabled Status = "disabled"
	StatusNotFound Status = "not_found"
)

// Resolution is the result of an exact id lookup.
// Entity is set for StatusFound and StatusDisabled; Reason only for StatusDisabled.
type Resolution struct {
	Status Status
	Entity domain.Entity
	Reason visibility.Reason
}

// resolveIn looks raw up in view. A pack the tenant has not enabled yields NotFound,
// so callers cannot probe for records outside their packs.
func resolveIn(view View, raw string) (Resolution, error) {
	id, err := domain.ParseCompositeID(raw)
	if err != nil {
		return Resolution{}, err
	}

	p, ok := view.Pack(id.PackID())
	if !ok {
		return Resolution{Status: StatusNotFound}, nil
	}
	e, ok := p.Store().Get(id.LocalID())
	if !ok {
		return Resolution{Status: StatusNotFound}, nil
	}

	if v := visibility.Evaluate(view, id); v.Disabled {
		return Resolution{Status: StatusDisabled, Entity: e, Reason: v.Reason}, nil
	}
	return Resolution{Status: StatusFound, Entity: e}, nil
}
