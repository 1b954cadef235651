package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/packdex/packdex-server/internal/api/dto"
	"github.com/packdex/packdex-server/internal/domain"
	domainerrors "github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/resolver"
)

func (s *Server) registerFindRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "find",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/find",
		Summary:     "Find media and characters",
		Description: "Resolves a composite id or fuzzy-searches the tenant's enabled packs. Id lookups return 404 when the record is unknown and 410 when it is disabled.",
		Tags:        []string{"Resolver"},
		Middlewares: huma.Middlewares{s.limitFind},
	}, s.handleFind)
}

// FindInput contains parameters for a find request.
type FindInput struct {
	Tenant string `path:"tenant" doc:"Tenant id"`
	ID     string `query:"id" doc:"Composite id to resolve (pack:local)"`
	Q      string `query:"q" maxLength:"1024" doc:"Free text; 'id=<composite id>' resolves an id instead"`
	Kind   string `query:"kind" doc:"Restrict text search to media or character"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
	Limit  int    `query:"limit" minimum:"0" doc:"Page size (server default when 0)"`
}

// FindResponse is one page of find results.
type FindResponse struct {
	Items   []dto.Hit `json:"items" doc:"Results in rank order"`
	HasNext bool      `json:"has_next" doc:"More results are available"`
	Cursor  string    `json:"cursor,omitempty" doc:"Pass as cursor to fetch the next page"`
	Status  string    `json:"status" doc:"found or not_found"`
	Partial bool      `json:"partial" doc:"A search budget cut the scan short"`
}

// FindOutput wraps the find response for Huma.
type FindOutput struct {
	Body FindResponse
}

func (s *Server) handleFind(ctx context.Context, input *FindInput) (*FindOutput, error) {
	if err := checkTenant(input.Tenant); err != nil {
		return nil, err
	}

	res, err := s.services.Resolver.Find(ctx, input.Tenant, resolver.Query{
		ID:   input.ID,
		Text: input.Q,
		Kind: domain.EntityKind(input.Kind),
	}, resolver.Page{
		Cursor: input.Cursor,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, err
	}

	if res.Exact {
		id := input.ID
		if id == "" {
			id = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input.Q), domain.ExplicitIDPrefix))
		}
		if err := resolutionError(res.Status, res.Reason, id); err != nil {
			return nil, err
		}
	}

	if res.Partial {
		s.logger.Debug("find returned partial results", "tenant_id", input.Tenant, "items", len(res.Items))
	}

	return &FindOutput{
		Body: FindResponse{
			Items:   dto.FromHits(res.Items),
			HasNext: res.HasNext,
			Cursor:  res.Cursor,
			Status:  string(res.Status),
			Partial: res.Partial,
		},
	}, nil
}

// limitFind applies the per-tenant find rate limit.
func (s *Server) limitFind(ctx huma.Context, next func(huma.Context)) {
	if s.findLimiter == nil {
		next(ctx)
		return
	}

	tenant := ctx.Param("tenant")
	if s.findLimiter.Allow(tenant) {
		next(ctx)
		return
	}

	s.logger.Warn("find rate limit exceeded", "tenant_id", tenant)
	ctx.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(60/float64(s.findRate)))))
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests", //nolint:errcheck // Response already committed
		domainerrors.RateLimitedf("tenant %q exceeded %d find requests per minute", tenant, s.findRate))
}

// checkTenant rejects tenant ids that cannot be stored.
func checkTenant(tenantID string) error {
	if !domain.ValidTenantID(tenantID) {
		return domainerrors.InvalidRequestf("invalid tenant id %q", tenantID)
	}
	return nil
}
