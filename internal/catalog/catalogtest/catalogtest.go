// Package catalogtest provides pack fixtures for tests across packages.
package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
)

// MustBuild builds m or fails the test.
func MustBuild(tb testing.TB, m catalog.Manifest, kind domain.PackKind) *catalog.Pack {
	tb.Helper()
	p, err := catalog.Build(m, kind, catalog.BuildOptions{})
	require.NoError(tb, err)
	return p
}

// BuiltinManifest is a small slice of the built-in catalog.
//
//	anilist:20   Naruto (popularity 900)
//	anilist:21   One Piece (popularity 800)
//	anilist:17   Naruto Uzumaki, MAIN in anilist:20 (popularity 500)
//	anilist:40   Monkey D. Luffy, MAIN in anilist:21 (popularity 700)
//	anilist:41   Narutomaki Chef, BACKGROUND in anilist:20 (popularity 5)
func BuiltinManifest() catalog.Manifest {
	return catalog.Manifest{
		ID:    domain.DefaultBuiltinPackID,
		Title: "AniList",
		Media: []catalog.RawMedia{
			{ID: "20", Type: "ANIME", Format: "TV", Title: catalog.RawTitle{English: "Naruto", Native: "NARUTO -ナルト-"}, Popularity: 900},
			{ID: "21", Type: "ANIME", Format: "TV", Title: catalog.RawTitle{English: "One Piece"}, Popularity: 800,
				Relations: []catalog.RawRelation{{Media: "20", Relation: "OTHER"}}},
		},
		Characters: []catalog.RawCharacter{
			{ID: "17", Name: catalog.RawName{Full: "Naruto Uzumaki", Native: "うずまきナルト"}, Popularity: 500,
				Appearances: []catalog.RawAppearance{{Media: "20", Role: "MAIN"}}},
			{ID: "40", Name: catalog.RawName{Full: "Monkey D. Luffy"}, Popularity: 700,
				Appearances: []catalog.RawAppearance{{Media: "21", Role: "MAIN"}}},
			{ID: "41", Name: catalog.RawName{Full: "Narutomaki Chef"}, Popularity: 5,
				Appearances: []catalog.RawAppearance{{Media: "20", Role: "BACKGROUND"}}},
		},
	}
}

// Builtin returns BuiltinManifest built as the built-in pack.
func Builtin(tb testing.TB) *catalog.Pack {
	tb.Helper()
	return MustBuild(tb, BuiltinManifest(), domain.PackKindBuiltin)
}

// FanManifest is a community pack that extends the built-in catalog.
//
//	fan:m1    Hidden Leaf Chronicles (popularity 50)
//	fan:pk1   Sasuke Shadow, MAIN in fan:m1 (popularity 30)
//	fan:pk2   Naruto Fox Form, SUPPORTING in anilist:20 (cross-pack, popularity 40)
func FanManifest() catalog.Manifest {
	return catalog.Manifest{
		ID:     "fan",
		Title:  "Fan Pack",
		Author: "someone",
		Media: []catalog.RawMedia{
			{ID: "m1", Title: catalog.RawTitle{English: "Hidden Leaf Chronicles"}, Popularity: 50},
		},
		Characters: []catalog.RawCharacter{
			{ID: "pk1", Name: catalog.RawName{Full: "Sasuke Shadow"}, Popularity: 30,
				Appearances: []catalog.RawAppearance{{Media: "m1", Role: "MAIN"}}},
			{ID: "pk2", Name: catalog.RawName{Full: "Naruto Fox Form"}, Popularity: 40,
				Appearances: []catalog.RawAppearance{{Media: "anilist:20"}}},
		},
	}
}

// Fan returns FanManifest built as a community pack.
func Fan(tb testing.TB) *catalog.Pack {
	tb.Helper()
	return MustBuild(tb, FanManifest(), domain.PackKindCommunity)
}
