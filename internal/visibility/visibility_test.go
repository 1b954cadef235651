package visibility_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/catalog/catalogtest"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/visibility"
)

type fakeView struct {
	packs    map[string]*catalog.Pack
	disabled map[domain.CompositeID]bool
}

func (v fakeView) Pack(packID string) (*catalog.Pack, bool) {
	p, ok := v.packs[packID]
	return p, ok
}

func (v fakeView) ManuallyDisabled(id domain.CompositeID) bool { return v.disabled[id] }

func newView(t *testing.T, disabled ...domain.CompositeID) fakeView {
	t.Helper()
	v := fakeView{
		packs: map[string]*catalog.Pack{
			"anilist": catalogtest.Builtin(t),
			"fan":     catalogtest.Fan(t),
		},
		disabled: make(map[domain.CompositeID]bool),
	}
	for _, d := range disabled {
		v.disabled[d] = true
	}
	return v
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		disabled []domain.CompositeID
		id       domain.CompositeID
		want     visibility.Verdict
	}{
		{name: "enabled media", id: "anilist:20", want: visibility.Verdict{}},
		{name: "enabled character", id: "anilist:17", want: visibility.Verdict{}},
		{name: "pack not enabled", id: "other:1", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonPackNotEnabled}},
		{name: "missing record", id: "anilist:999", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonMissing}},
		{name: "manual", disabled: []domain.CompositeID{"anilist:17"}, id: "anilist:17", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonManual}},
		{name: "manual beats missing", disabled: []domain.CompositeID{"anilist:999"}, id: "anilist:999", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonManual}},
		{name: "cascade from disabled media", disabled: []domain.CompositeID{"anilist:20"}, id: "anilist:17", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonCascade}},
		{name: "cross-pack cascade", disabled: []domain.CompositeID{"anilist:20"}, id: "fan:pk2", want: visibility.Verdict{Disabled: true, Reason: visibility.ReasonCascade}},
		{name: "disabled media does not hide unrelated character", disabled: []domain.CompositeID{"anilist:20"}, id: "anilist:40", want: visibility.Verdict{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newView(t, tt.disabled...)
			assert.Equal(t, tt.want, visibility.Evaluate(view, tt.id))
			assert.Equal(t, tt.want.Disabled, visibility.IsDisabled(view, tt.id))
		})
	}
}

func TestEvaluate_CharacterWithoutAppearances(t *testing.T) {
	p := catalogtest.MustBuild(t, catalog.Manifest{
		ID:         "solo",
		Characters: []catalog.RawCharacter{{ID: "c", Name: catalog.RawName{Full: "Loner"}}},
	}, domain.PackKindCommunity)
	view := fakeView{packs: map[string]*catalog.Pack{"solo": p}}

	assert.Equal(t, visibility.Verdict{Disabled: true, Reason: visibility.ReasonCascade}, visibility.Evaluate(view, "solo:c"))
}

func TestEvaluate_VisibleWhileAnyMediaVisible(t *testing.T) {
	p := catalogtest.MustBuild(t, catalog.Manifest{
		ID: "multi",
		Media: []catalog.RawMedia{
			{ID: "a", Title: catalog.RawTitle{English: "A"}},
			{ID: "b", Title: catalog.RawTitle{English: "B"}},
		},
		Characters: []catalog.RawCharacter{{ID: "c", Name: catalog.RawName{Full: "C"},
			Appearances: []catalog.RawAppearance{{Media: "a"}, {Media: "b"}, {Media: "gone:1"}}}},
	}, domain.PackKindCommunity)

	view := fakeView{
		packs:    map[string]*catalog.Pack{"multi": p},
		disabled: map[domain.CompositeID]bool{"multi:a": true},
	}
	assert.False(t, visibility.IsDisabled(view, "multi:c"))

	view.disabled["multi:b"] = true
	assert.True(t, visibility.IsDisabled(view, "multi:c"))
}

func TestEvaluate_AppearanceOnCharacterIsNotMedia(t *testing.T) {
	other := catalogtest.MustBuild(t, catalog.Manifest{
		ID:         "other",
		Characters: []catalog.RawCharacter{{ID: "x", Name: catalog.RawName{Full: "X"}, Appearances: []catalog.RawAppearance{{Media: "fan:pk1"}}}},
	}, domain.PackKindCommunity)
	view := newView(t)
	view.packs["other"] = other

	assert.Equal(t, visibility.ReasonCascade, visibility.Evaluate(view, "other:x").Reason)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	view := newView(t, "anilist:20")
	first := visibility.Evaluate(view, "anilist:17")
	for range 10 {
		assert.Equal(t, first, visibility.Evaluate(view, "anilist:17"))
	}
}

func TestEvaluate_RegistrySnapshot(t *testing.T) {
	r, err := registry.New(catalogtest.Builtin(t), registry.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, visibility.IsDisabled(r.Snapshot("g1"), "fan:pk1"))

	_, err = r.Install(ctx, "g1", catalogtest.Fan(t), "")
	require.NoError(t, err)
	assert.False(t, visibility.IsDisabled(r.Snapshot("g1"), "fan:pk1"))

	require.NoError(t, r.DisableEntity(ctx, "g1", "fan:m1"))
	assert.Equal(t, visibility.ReasonCascade, visibility.Evaluate(r.Snapshot("g1"), "fan:pk1").Reason)

	require.NoError(t, r.Uninstall(ctx, "g1", "fan"))
	assert.Equal(t, visibility.ReasonPackNotEnabled, visibility.Evaluate(r.Snapshot("g1"), "fan:pk1").Reason)
}
