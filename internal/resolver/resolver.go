// Package resolver answers exact-id lookups and fuzzy text searches over a tenant's enabled packs.
//
// Every call reads exactly one registry snapshot, so it sees a consistent set of packs and
// disables even while installs and uninstalls happen concurrently.
package resolver

import (
	"context"
	"slices"
	"strings"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/visibility"
)

// Snapshots hands out tenant snapshots. *registry.Registry satisfies it.
type Snapshots interface {
	Snapshot(tenantID string) *registry.Snapshot
}

// Query selects what Find looks for. Exactly one of ID and Text must be set.
type Query struct {
	ID   string
	Text string
	// Kind restricts text searches. Empty searches media and characters.
	Kind domain.EntityKind
}

// Page selects a window of results. A zero Limit uses the default page size.
type Page struct {
	Cursor string
	Limit  int
}

// FindResult is one page of Find results.
type FindResult struct {
	Items   []Hit
	HasNext bool
	// Cursor fetches the next page. Empty when HasNext is false.
	Cursor string
	Status Status
	// Reason is set when Status is StatusDisabled.
	Reason  visibility.Reason
	Partial bool
	// Exact is set when the query named a composite id, through Query.ID or the id= syntax.
	Exact bool
}

// Resolver is the entry point for lookups.
type Resolver struct {
	snapshots Snapshots
	matcher   *Matcher
	opts      Options
}

// New creates a resolver reading tenant state from snapshots.
func New(snapshots Snapshots, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		snapshots: snapshots,
		matcher:   NewMatcher(opts),
		opts:      opts,
	}
}

// Matcher returns the fuzzy matcher the resolver uses.
func (r *Resolver) Matcher() *Matcher {
	return r.matcher
}

// ResolveByID looks up a composite id for tenantID.
// Records of packs the tenant has not enabled resolve as StatusNotFound.
// A malformed id is an INVALID_REQUEST error.
func (r *Resolver) ResolveByID(ctx context.Context, tenantID, id string) (Resolution, error) {
	if tenantID == "" {
		return Resolution{}, errors.InvalidRequest("tenant id is required")
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	return resolveIn(r.snapshots.Snapshot(tenantID), id)
}

// IsDisabled reports whether id is hidden from tenantID. Ids of packs the tenant
// has not enabled, and ids that do not exist, are reported as disabled.
func (r *Resolver) IsDisabled(tenantID string, id domain.CompositeID) bool {
	return visibility.IsDisabled(r.snapshots.Snapshot(tenantID), id)
}

// Visibility returns the full verdict for id, including the reason it is hidden.
func (r *Resolver) Visibility(tenantID string, id domain.CompositeID) visibility.Verdict {
	return visibility.Evaluate(r.snapshots.Snapshot(tenantID), id)
}

// Find runs an id lookup or a text search and returns one page of results.
func (r *Resolver) Find(ctx context.Context, tenantID string, q Query, page Page) (*FindResult, error) {
	if tenantID == "" {
		return nil, errors.InvalidRequest("tenant id is required")
	}

	// Presence is decided before trimming: whitespace-only text is a search that matches nothing.
	if (q.ID == "") == (q.Text == "") {
		return nil, errors.InvalidRequest("exactly one of id and text is required")
	}
	id, text := strings.TrimSpace(q.ID), strings.TrimSpace(q.Text)
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, errors.InvalidRequestf("unknown kind %q", q.Kind)
	}

	limit, err := r.limit(page.Limit)
	if err != nil {
		return nil, err
	}

	view := r.snapshots.Snapshot(tenantID)

	if q.ID != "" {
		res, err := resolveIn(view, id)
		if err != nil {
			return nil, err
		}
		return single(res), nil
	}

	sr, err := r.matcher.Search(ctx, view, text, q.Kind)
	if err != nil {
		return nil, err
	}
	if sr.Explicit != nil {
		return single(*sr.Explicit), nil
	}

	return paginate(sr, q.Kind, page.Cursor, limit)
}

func (r *Resolver) limit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, errors.InvalidRequest("limit must not be negative")
	case requested == 0:
		return r.opts.DefaultPageSize, nil
	case requested > r.opts.MaxPageSize:
		return r.opts.MaxPageSize, nil
	default:
		return requested, nil
	}
}

func single(res Resolution) *FindResult {
	out := &FindResult{Status: res.Status, Reason: res.Reason, Exact: true}
	if res.Status == StatusFound {
		out.Items = []Hit{{Entity: res.Entity, Score: 100}}
	}
	return out
}

func paginate(sr *SearchResult, kind domain.EntityKind, cursor string, limit int) (*FindResult, error) {
	fp := fingerprint(sr.Normalized, kind)

	hits := sr.Hits
	if cursor != "" {
		key, err := decodeCursor(cursor, fp)
		if err != nil {
			return nil, err
		}
		start := slices.IndexFunc(hits, key.after)
		if start < 0 {
			start = len(hits)
		}
		hits = hits[start:]
	}

	out := &FindResult{Status: StatusNotFound, Partial: sr.Partial}
	if len(sr.Hits) > 0 {
		out.Status = StatusFound
	}

	if len(hits) > limit {
		out.Items = hits[:limit:limit]
		out.HasNext = true
		out.Cursor = encodeCursor(keyOf(out.Items[limit-1], fp))
	} else {
		out.Items = hits
	}
	return out, nil
}
