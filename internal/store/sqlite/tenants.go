package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
)

// SaveInstall stores rec, replacing any earlier record for the same tenant and pack.
func (s *Store) SaveInstall(ctx context.Context, rec domain.PackInstall) error {
	if rec.TenantID == "" {
		return errors.InvalidRequest("tenant id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pack_installs (tenant_id, pack_id, install_id, seq, installed_at, installed_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, pack_id) DO UPDATE SET
			install_id = excluded.install_id,
			seq = excluded.seq,
			installed_at = excluded.installed_at,
			installed_by = excluded.installed_by`,
		rec.TenantID, rec.PackID, rec.ID, int64(rec.Seq), formatTime(rec.InstalledAt), nullString(rec.InstalledBy),
	)
	if err != nil {
		return fmt.Errorf("save install: %w", err)
	}
	return nil
}

// GetInstall returns the install record of packID for tenantID.
func (s *Store) GetInstall(ctx context.Context, tenantID, packID string) (*domain.PackInstall, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, pack_id, install_id, seq, installed_at, installed_by
		FROM pack_installs WHERE tenant_id = ? AND pack_id = ?`, tenantID, packID)

	rec, err := scanInstall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.PackNotFoundf("pack %q is not installed", packID)
	}
	if err != nil {
		return nil, fmt.Errorf("get install: %w", err)
	}
	return rec, nil
}

// DeleteInstall removes the install record of packID for tenantID. Missing records are ignored.
func (s *Store) DeleteInstall(ctx context.Context, tenantID, packID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pack_installs WHERE tenant_id = ? AND pack_id = ?`, tenantID, packID); err != nil {
		return fmt.Errorf("delete install: %w", err)
	}
	return nil
}

// SetDisabled records or clears a manual disable.
func (s *Store) SetDisabled(ctx context.Context, tenantID string, entityID domain.CompositeID, disabled bool) error {
	if tenantID == "" {
		return errors.InvalidRequest("tenant id is required")
	}

	var err error
	if disabled {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO disabled_entities (tenant_id, entity_id, disabled_at) VALUES (?, ?, ?)
			ON CONFLICT (tenant_id, entity_id) DO NOTHING`,
			tenantID, entityID.String(), formatTime(time.Now()))
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM disabled_entities WHERE tenant_id = ? AND entity_id = ?`, tenantID, entityID.String())
	}
	if err != nil {
		return fmt.Errorf("set disabled: %w", err)
	}
	return nil
}

// LoadTenants returns the state of every tenant that has installs or disables, ordered by tenant id.
func (s *Store) LoadTenants(ctx context.Context) ([]domain.TenantState, error) {
	var (
		out   []domain.TenantState
		index = make(map[string]int)
	)
	state := func(tenantID string) *domain.TenantState {
		i, ok := index[tenantID]
		if !ok {
			i = len(out)
			index[tenantID] = i
			out = append(out, domain.TenantState{TenantID: tenantID})
		}
		return &out[i]
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id FROM pack_installs
		UNION
		SELECT tenant_id FROM disabled_entities
		ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		state(tenantID)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT tenant_id, pack_id, install_id, seq, installed_at, installed_by
		FROM pack_installs ORDER BY tenant_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("load installs: %w", err)
	}
	for rows.Next() {
		rec, err := scanInstall(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan install: %w", err)
		}
		st := state(rec.TenantID)
		st.Installs = append(st.Installs, *rec)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load installs: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT tenant_id, entity_id FROM disabled_entities ORDER BY tenant_id, entity_id`)
	if err != nil {
		return nil, fmt.Errorf("load disables: %w", err)
	}
	for rows.Next() {
		var tenantID, entityID string
		if err := rows.Scan(&tenantID, &entityID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan disable: %w", err)
		}
		st := state(tenantID)
		st.Disabled = append(st.Disabled, domain.CompositeID(entityID))
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load disables: %w", err)
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstall(row scanner) (*domain.PackInstall, error) {
	var (
		rec         domain.PackInstall
		seq         int64
		installedAt string
		installedBy sql.NullString
	)
	if err := row.Scan(&rec.TenantID, &rec.PackID, &rec.ID, &seq, &installedAt, &installedBy); err != nil {
		return nil, err
	}

	t, err := parseTime(installedAt)
	if err != nil {
		return nil, fmt.Errorf("parse installed_at: %w", err)
	}
	rec.Seq = uint64(seq)
	rec.InstalledAt = t
	rec.InstalledBy = installedBy.String
	return &rec, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
