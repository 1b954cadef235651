package registry

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
)

func sortedInstalls(recs []domain.PackInstall) []domain.PackInstall {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b domain.PackInstall) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

func sortedKeys(m map[string]*catalog.Pack) []string {
	return slices.Sorted(maps.Keys(m))
}

// nopPersistence keeps state in memory only.
type nopPersistence struct{}

func (nopPersistence) SaveInstall(context.Context, domain.PackInstall) error { return nil }

func (nopPersistence) DeleteInstall(context.Context, string, string) error { return nil }

func (nopPersistence) SetDisabled(context.Context, string, domain.CompositeID, bool) error {
	return nil
}

func (nopPersistence) LoadTenants(context.Context) ([]domain.TenantState, error) { return nil, nil }
