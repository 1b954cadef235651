package resolver

import (
	"cmp"
	"encoding/base64"
	"encoding/json"

	"github.com/cespare/xxhash/v2"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
)

// cursorKey is the sort key of the last item on a page, plus a fingerprint of the search it belongs to.
type cursorKey struct {
	Score       float64            `json:"s"`
	Popularity  int                `json:"p"`
	ID          domain.CompositeID `json:"i"`
	Fingerprint uint64             `json:"f"`
}

// fingerprint identifies a search so a cursor cannot be replayed against a different one.
func fingerprint(normalized string, kind domain.EntityKind) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(normalized)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(kind))
	return d.Sum64()
}

func keyOf(h Hit, fp uint64) cursorKey {
	return cursorKey{
		Score:       h.Score,
		Popularity:  h.Entity.PopularityScore(),
		ID:          h.Entity.CompositeID(),
		Fingerprint: fp,
	}
}

func encodeCursor(k cursorKey) string {
	data, err := json.Marshal(k)
	if err != nil {
		// A struct of plain numbers and strings always marshals.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(cursor string, fp uint64) (cursorKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return cursorKey{}, errors.InvalidRequest("invalid cursor")
	}

	var k cursorKey
	if err := json.Unmarshal(data, &k); err != nil || k.ID == "" {
		return cursorKey{}, errors.InvalidRequest("invalid cursor")
	}
	if k.Fingerprint != fp {
		return cursorKey{}, errors.InvalidRequest("cursor does not belong to this query")
	}
	return k, nil
}

// after reports whether h ranks strictly after the cursor position.
func (k cursorKey) after(h Hit) bool {
	if c := cmp.Compare(k.Score, h.Score); c != 0 {
		return c > 0
	}
	if c := cmp.Compare(k.Popularity, h.Entity.PopularityScore()); c != 0 {
		return c > 0
	}
	return h.Entity.CompositeID() > k.ID
}
