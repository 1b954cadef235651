package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
)

// disabledRecord is the stored form of a manual disable.
type disabledRecord struct {
	TenantID   string             `json:"tenant_id"`
	EntityID   domain.CompositeID `json:"entity_id"`
	DisabledAt time.Time          `json:"disabled_at"`
}

func checkTenant(tenantID string) error {
	if tenantID == "" || strings.ContainsRune(tenantID, keySep) {
		return errors.InvalidRequestf("invalid tenant id %q", tenantID)
	}
	return nil
}

// SaveInstall stores rec, replacing any earlier record for the same tenant and pack.
func (s *Store) SaveInstall(ctx context.Context, rec domain.PackInstall) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkTenant(rec.TenantID); err != nil {
		return err
	}

	key := buildKey(prefixInstall, rec.TenantID, rec.PackID)
	defer releaseKey(key)

	if err := s.set(key, rec); err != nil {
		return fmt.Errorf("save install: %w", err)
	}
	return nil
}

// GetInstall returns the install record of packID for tenantID.
func (s *Store) GetInstall(ctx context.Context, tenantID, packID string) (*domain.PackInstall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(prefixInstall, tenantID, packID)
	defer releaseKey(key)

	ok, err := s.exists(key)
	if err != nil {
		return nil, fmt.Errorf("get install: %w", err)
	}
	if !ok {
		return nil, errors.PackNotFoundf("pack %q is not installed", packID)
	}

	var rec domain.PackInstall
	if err := s.get(key, &rec); err != nil {
		return nil, fmt.Errorf("get install: %w", err)
	}
	return &rec, nil
}

// DeleteInstall removes the install record of packID for tenantID. Missing records are ignored.
func (s *Store) DeleteInstall(ctx context.Context, tenantID, packID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(prefixInstall, tenantID, packID)
	defer releaseKey(key)

	if err := s.delete(key); err != nil {
		return fmt.Errorf("delete install: %w", err)
	}
	return nil
}

// SetDisabled records or clears a manual disable.
func (s *Store) SetDisabled(ctx context.Context, tenantID string, entityID domain.CompositeID, disabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkTenant(tenantID); err != nil {
		return err
	}

	key := buildKey(prefixDisabled, tenantID, entityID.String())
	defer releaseKey(key)

	if !disabled {
		if err := s.delete(key); err != nil {
			return fmt.Errorf("clear disabled: %w", err)
		}
		return nil
	}

	rec := disabledRecord{TenantID: tenantID, EntityID: entityID, DisabledAt: time.Now().UTC()}
	if err := s.set(key, rec); err != nil {
		return fmt.Errorf("set disabled: %w", err)
	}
	return nil
}

// LoadTenants returns the state of every tenant that has installs or disables, ordered by tenant id.
// Installs are ordered by Seq and disables by id.
func (s *Store) LoadTenants(ctx context.Context) ([]domain.TenantState, error) {
	byTenant := make(map[string]*domain.TenantState)
	state := func(tenantID string) *domain.TenantState {
		st, ok := byTenant[tenantID]
		if !ok {
			st = &domain.TenantState{TenantID: tenantID}
			byTenant[tenantID] = st
		}
		return st
	}

	for rec, err := range scan[domain.PackInstall](ctx, s, prefixInstall) {
		if err != nil {
			return nil, fmt.Errorf("load installs: %w", err)
		}
		st := state(rec.TenantID)
		st.Installs = append(st.Installs, *rec)
	}

	for rec, err := range scan[disabledRecord](ctx, s, prefixDisabled) {
		if err != nil {
			return nil, fmt.Errorf("load disables: %w", err)
		}
		st := state(rec.TenantID)
		st.Disabled = append(st.Disabled, rec.EntityID)
	}

	out := make([]domain.TenantState, 0, len(byTenant))
	for _, st := range byTenant {
		slices.SortFunc(st.Installs, func(a, b domain.PackInstall) int { return cmp.Compare(a.Seq, b.Seq) })
		slices.Sort(st.Disabled)
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b domain.TenantState) int { return cmp.Compare(a.TenantID, b.TenantID) })

	s.logger.Debug("tenant state loaded", "tenants", len(out))
	return out, nil
}
