package resolver

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/search"
	"golang.org/x/sync/errgroup"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/textnorm"
	"github.com/packdex/packdex-server/internal/visibility"
)

// deadlineCheckEvery is how many records a worker scores between deadline checks.
const deadlineCheckEvery = 64

// View is the tenant state a search runs against. *registry.Snapshot satisfies it.
type View interface {
	visibility.View
	Packs() []*catalog.Pack
}

// Hit is a ranked search result.
type Hit struct {
	Entity domain.Entity
	Score  float64
}

// SearchResult holds every accepted hit in rank order.
type SearchResult struct {
	Hits []Hit
	// Partial is set when the item or time budget cut the scan short.
	Partial bool
	// Explicit is set when the query used the id= syntax and bypassed scoring.
	Explicit *Resolution
	// Normalized is the query after truncation and folding.
	Normalized string
}

// Matcher scores records of enabled packs against free text.
type Matcher struct {
	opts Options
}

// NewMatcher creates a matcher.
func NewMatcher(opts Options) *Matcher {
	return &Matcher{opts: opts.withDefaults()}
}

// Search ranks the visible records of kind in view against query. An empty kind searches both kinds.
//
// Candidates scoring below the acceptance floor and disabled records are dropped. Hits are
// ordered by score, then popularity (both descending), then composite id.
// A query of the form "id=<compositeId>" skips scoring and resolves the id instead.
//
// When a budget runs out the hits found so far are returned with Partial set.
// If ctx is cancelled, Search returns ctx.Err().
func (m *Matcher) Search(ctx context.Context, view View, query string, kind domain.EntityKind) (*SearchResult, error) {
	if kind != "" && !kind.Valid() {
		return nil, errors.InvalidRequestf("unknown kind %q", kind)
	}

	query = strings.TrimSpace(query)
	if rest, ok := strings.CutPrefix(query, domain.ExplicitIDPrefix); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return nil, errors.InvalidRequest("id= requires a composite id")
		}
		res, err := resolveIn(view, rest)
		if err != nil {
			return nil, err
		}
		out := &SearchResult{Explicit: &res, Normalized: domain.ExplicitIDPrefix + rest}
		if res.Status == StatusFound {
			out.Hits = []Hit{{Entity: res.Entity, Score: 100}}
		}
		return out, nil
	}

	normalized := normalizeQuery(query, m.opts.MaxQueryRunes)
	if normalized == "" {
		return &SearchResult{}, nil
	}

	scanCtx := ctx
	if m.opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, m.opts.TimeBudget)
		defer cancel()
	}

	packs := view.Packs()
	quotas, truncated := m.allocate(packs, kind)

	perPack := make([][]Hit, len(packs))
	timedOut := make([]bool, len(packs))

	var g errgroup.Group
	g.SetLimit(m.opts.Workers)
	for i, p := range packs {
		g.Go(func() error {
			hits, complete := m.scan(scanCtx, view, p, normalized, kind, quotas[i])
			perPack[i] = hits
			timedOut[i] = !complete
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SearchResult{Normalized: normalized, Partial: truncated || slices.Contains(timedOut, true)}
	for _, hits := range perPack {
		result.Hits = append(result.Hits, hits...)
	}
	slices.SortFunc(result.Hits, compareHits)

	if result.Partial {
		m.opts.Logger.Warn("search budget exhausted",
			"query", normalized,
			"hits", len(result.Hits),
			"item_budget", m.opts.ItemBudget,
			"time_budget", m.opts.TimeBudget,
		)
	}

	return result, nil
}

// allocate splits the item budget across packs in precedence order: earlier packs are
// scanned in full before later ones get anything. truncated reports whether any pack lost records.
// A quota of -1 means unlimited.
func (m *Matcher) allocate(packs []*catalog.Pack, kind domain.EntityKind) (quotas []int, truncated bool) {
	quotas = make([]int, len(packs))
	if m.opts.ItemBudget == 0 {
		for i := range quotas {
			quotas[i] = -1
		}
		return quotas, false
	}

	remaining := m.opts.ItemBudget
	for i, p := range packs {
		n := size(p.Store(), kind)
		quotas[i] = min(n, remaining)
		remaining -= quotas[i]
		if quotas[i] < n {
			truncated = true
		}
	}
	return quotas, truncated
}

func size(s *catalog.Store, kind domain.EntityKind) int {
	if kind == "" {
		return s.Len(domain.KindMedia) + s.Len(domain.KindCharacter)
	}
	return s.Len(kind)
}

func kindsOf(kind domain.EntityKind) []domain.EntityKind {
	if kind == "" {
		return []domain.EntityKind{domain.KindMedia, domain.KindCharacter}
	}
	return []domain.EntityKind{kind}
}

// scan scores up to quota records of one pack. complete is false if the deadline passed mid-scan.
func (m *Matcher) scan(ctx context.Context, view View, p *catalog.Pack, query string, kind domain.EntityKind, quota int) (hits []Hit, complete bool) {
	store := p.Store()
	scored := 0

	for _, k := range kindsOf(kind) {
		for e := range store.All(k) {
			if quota >= 0 && scored >= quota {
				return hits, true
			}
			if scored%deadlineCheckEvery == 0 && ctx.Err() != nil {
				return hits, false
			}
			scored++

			score, ok := bestScore(query, store.Labels(e.CompositeID().LocalID()), m.opts.AcceptanceFloor)
			if !ok {
				continue
			}
			if visibility.IsDisabled(view, e.CompositeID()) {
				continue
			}
			hits = append(hits, Hit{Entity: e, Score: score})
		}
	}
	return hits, true
}

// bestScore returns the highest similarity between query and any label, if it reaches floor.
func bestScore(query string, labels []string, floor float64) (float64, bool) {
	best, found := 0.0, false
	for _, label := range labels {
		s, ok := similarity(query, label, floor)
		if ok && (!found || s > best) {
			best, found = s, true
		}
	}
	return best, found
}

// similarity is 100 * (1 - lev(a, b) / max(len(a), len(b))), measured in characters of the folded strings.
// Two empty strings score 100; one empty string scores 0. ok is false when the score is below floor,
// in which case the distance computation may stop early.
func similarity(a, b string, floor float64) (float64, bool) {
	ascii := isASCII(a) && isASCII(b)

	var ra, rb []rune
	la, lb := len(a), len(b)
	if !ascii {
		ra, rb = []rune(a), []rune(b)
		la, lb = len(ra), len(rb)
	}

	longest := max(la, lb)
	if longest == 0 {
		return 100, floor <= 100
	}
	if la == 0 || lb == 0 {
		return 0, floor <= 0
	}

	// Largest distance that still scores at least floor.
	allowed := int(math.Floor(float64(longest)*(100-floor)/100 + 1e-9))

	var (
		d        int
		exceeded bool
	)
	if ascii {
		d, exceeded = search.LevenshteinDistanceMax(a, b, allowed)
	} else {
		d, exceeded = runeDistanceMax(ra, rb, allowed)
	}
	if exceeded {
		return 0, false
	}

	score := 100 * float64(longest-d) / float64(longest)
	return score, score >= floor
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// runeDistanceMax is the Levenshtein distance between a and b counted in runes.
// exceeded is set, and the distance abandoned, once it must be larger than limit.
func runeDistanceMax(a, b []rune, limit int) (int, bool) {
	if diff := len(a) - len(b); diff > limit || -diff > limit {
		return 0, true
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > limit {
			return 0, true
		}
		prev, cur = cur, prev
	}

	d := prev[len(b)]
	return d, d > limit
}

func compareHits(a, b Hit) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Entity.PopularityScore(), a.Entity.PopularityScore()); c != 0 {
		return c
	}
	return cmp.Compare(a.Entity.CompositeID(), b.Entity.CompositeID())
}

func normalizeQuery(q string, maxRunes int) string {
	return textnorm.Fold(textnorm.Truncate(q, maxRunes))
}
