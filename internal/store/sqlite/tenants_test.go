package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/registry"
)

var _ registry.Persistence = (*Store)(nil)

func TestInstallRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := domain.PackInstall{
		ID:          "inst-1",
		TenantID:    "g1",
		PackID:      "fan",
		Seq:         3,
		InstalledAt: time.Date(2025, 6, 1, 8, 0, 0, 123, time.UTC),
		InstalledBy: "admin",
	}
	if err := s.SaveInstall(ctx, rec); err != nil {
		t.Fatalf("save install: %v", err)
	}

	got, err := s.GetInstall(ctx, "g1", "fan")
	if err != nil {
		t.Fatalf("get install: %v", err)
	}
	if *got != rec {
		t.Errorf("got %+v, want %+v", *got, rec)
	}

	// Saving again replaces the record.
	rec.ID, rec.Seq = "inst-2", 4
	if err := s.SaveInstall(ctx, rec); err != nil {
		t.Fatalf("re-save install: %v", err)
	}
	got, _ = s.GetInstall(ctx, "g1", "fan")
	if got.ID != "inst-2" || got.Seq != 4 {
		t.Errorf("record not replaced: %+v", *got)
	}

	if err := s.DeleteInstall(ctx, "g1", "fan"); err != nil {
		t.Fatalf("delete install: %v", err)
	}
	if _, err := s.GetInstall(ctx, "g1", "fan"); !errors.Is(err, errors.ErrPackNotFound) {
		t.Errorf("expected PACK_NOT_FOUND, got %v", err)
	}
}

func TestLoadTenants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.SaveInstall(ctx, domain.PackInstall{ID: "a", TenantID: "g2", PackID: "zeta", Seq: 2, InstalledAt: now}))
	must(s.SaveInstall(ctx, domain.PackInstall{ID: "b", TenantID: "g2", PackID: "alpha", Seq: 5, InstalledAt: now}))
	must(s.SetDisabled(ctx, "g1", "anilist:9", true))
	must(s.SetDisabled(ctx, "g1", "anilist:9", true))
	must(s.SetDisabled(ctx, "g1", "anilist:10", true))
	must(s.SetDisabled(ctx, "g3", "anilist:1", true))
	must(s.SetDisabled(ctx, "g3", "anilist:1", false))

	states, err := s.LoadTenants(ctx)
	if err != nil {
		t.Fatalf("load tenants: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 tenants, got %d: %+v", len(states), states)
	}

	g1, g2 := states[0], states[1]
	if g1.TenantID != "g1" || len(g1.Disabled) != 2 || g1.Disabled[0] != "anilist:10" {
		t.Errorf("unexpected g1 state: %+v", g1)
	}
	if g2.TenantID != "g2" || len(g2.Installs) != 2 || g2.Installs[0].PackID != "zeta" {
		t.Errorf("unexpected g2 state: %+v", g2)
	}
	if g2.Installs[1].InstalledBy != "" {
		t.Errorf("expected empty installer, got %q", g2.Installs[1].InstalledBy)
	}
}

func TestSaveInstall_RequiresTenant(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveInstall(context.Background(), domain.PackInstall{PackID: "fan"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}
