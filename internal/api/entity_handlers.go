package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/packdex/packdex-server/internal/api/dto"
	"github.com/packdex/packdex-server/internal/domain"
	domainerrors "github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/visibility"
)

func (s *Server) registerEntityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getEntity",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/entities/{id}",
		Summary:     "Get entity",
		Description: "Resolves a composite id. Returns 404 when the record is unknown to the tenant and 410 when it is disabled.",
		Tags:        []string{"Resolver"},
	}, s.handleGetEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEntityVisibility",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/entities/{id}/visibility",
		Summary:     "Get entity visibility",
		Description: "Reports whether a record is hidden from the tenant and why",
		Tags:        []string{"Resolver"},
	}, s.handleGetVisibility)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMediaCharacters",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/media/{id}/characters",
		Summary:     "List media characters",
		Description: "Lists the visible characters of all enabled packs appearing in a media, main roles first",
		Tags:        []string{"Resolver"},
	}, s.handleGetMediaCharacters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMediaRelations",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/media/{id}/relations",
		Summary:     "List related media",
		Description: "Lists the visible media linked from a media",
		Tags:        []string{"Resolver"},
	}, s.handleGetMediaRelations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCharacterMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/characters/{id}/media",
		Summary:     "List character media",
		Description: "Lists the visible media a character appears in",
		Tags:        []string{"Resolver"},
	}, s.handleGetCharacterMedia)
}

// === DTOs ===

// EntityInput identifies a record of a tenant.
type EntityInput struct {
	Tenant string `path:"tenant" doc:"Tenant id"`
	ID     string `path:"id" doc:"Composite id (pack:local)"`
}

// EntityOutput wraps an entity for Huma.
type EntityOutput struct {
	Body dto.Entity
}

// VisibilityResponse is the visibility verdict for one record.
type VisibilityResponse struct {
	ID       string `json:"id" doc:"Composite id"`
	Disabled bool   `json:"disabled" doc:"Record is hidden from the tenant"`
	Reason   string `json:"reason,omitempty" doc:"pack_not_enabled, manual, missing or cascade"`
}

// VisibilityOutput wraps the visibility response for Huma.
type VisibilityOutput struct {
	Body VisibilityResponse
}

// MediaCharactersResponse lists the cast of a media.
type MediaCharactersResponse struct {
	Media      *dto.Entity      `json:"media" doc:"The media"`
	Characters []dto.CastMember `json:"characters" doc:"Visible characters, MAIN first"`
}

// MediaCharactersOutput wraps the cast response for Huma.
type MediaCharactersOutput struct {
	Body MediaCharactersResponse
}

// MediaRelationsResponse lists media related to a media.
type MediaRelationsResponse struct {
	Media     *dto.Entity        `json:"media" doc:"The media"`
	Relations []dto.RelatedMedia `json:"relations" doc:"Visible related media"`
}

// MediaRelationsOutput wraps the relations response for Huma.
type MediaRelationsOutput struct {
	Body MediaRelationsResponse
}

// CharacterMediaResponse lists the media of a character.
type CharacterMediaResponse struct {
	Character *dto.Entity           `json:"character" doc:"The character"`
	Media     []dto.MediaAppearance `json:"media" doc:"Visible media the character appears in"`
}

// CharacterMediaOutput wraps the character media response for Huma.
type CharacterMediaOutput struct {
	Body CharacterMediaResponse
}

// === Handlers ===

func (s *Server) handleGetEntity(ctx context.Context, input *EntityInput) (*EntityOutput, error) {
	id, err := entityParam(input)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Resolver.ResolveByID(ctx, input.Tenant, id)
	if err != nil {
		return nil, err
	}
	if err := resolutionError(res.Status, res.Reason, id); err != nil {
		return nil, err
	}

	return &EntityOutput{Body: *dto.FromEntity(res.Entity)}, nil
}

func (s *Server) handleGetVisibility(_ context.Context, input *EntityInput) (*VisibilityOutput, error) {
	raw, err := entityParam(input)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseCompositeID(raw)
	if err != nil {
		return nil, err
	}

	verdict := s.services.Resolver.Visibility(input.Tenant, id)
	return &VisibilityOutput{
		Body: VisibilityResponse{
			ID:       id.String(),
			Disabled: verdict.Disabled,
			Reason:   string(verdict.Reason),
		},
	}, nil
}

func (s *Server) handleGetMediaCharacters(ctx context.Context, input *EntityInput) (*MediaCharactersOutput, error) {
	id, err := entityParam(input)
	if err != nil {
		return nil, err
	}

	res, cast, err := s.services.Resolver.MediaCharacters(ctx, input.Tenant, id)
	if err != nil {
		return nil, err
	}
	if err := resolutionError(res.Status, res.Reason, id); err != nil {
		return nil, err
	}

	return &MediaCharactersOutput{
		Body: MediaCharactersResponse{
			Media:      dto.FromEntity(res.Entity),
			Characters: dto.FromCast(cast),
		},
	}, nil
}

func (s *Server) handleGetMediaRelations(ctx context.Context, input *EntityInput) (*MediaRelationsOutput, error) {
	id, err := entityParam(input)
	if err != nil {
		return nil, err
	}

	res, rels, err := s.services.Resolver.MediaRelations(ctx, input.Tenant, id)
	if err != nil {
		return nil, err
	}
	if err := resolutionError(res.Status, res.Reason, id); err != nil {
		return nil, err
	}

	return &MediaRelationsOutput{
		Body: MediaRelationsResponse{
			Media:     dto.FromEntity(res.Entity),
			Relations: dto.FromRelations(rels),
		},
	}, nil
}

func (s *Server) handleGetCharacterMedia(ctx context.Context, input *EntityInput) (*CharacterMediaOutput, error) {
	id, err := entityParam(input)
	if err != nil {
		return nil, err
	}

	res, apps, err := s.services.Resolver.CharacterMedia(ctx, input.Tenant, id)
	if err != nil {
		return nil, err
	}
	if err := resolutionError(res.Status, res.Reason, id); err != nil {
		return nil, err
	}

	return &CharacterMediaOutput{
		Body: CharacterMediaResponse{
			Character: dto.FromEntity(res.Entity),
			Media:     dto.FromAppearances(apps),
		},
	}, nil
}

// entityParam validates the tenant and returns the decoded id path parameter.
func entityParam(input *EntityInput) (string, error) {
	if err := checkTenant(input.Tenant); err != nil {
		return "", err
	}
	id, err := url.PathUnescape(input.ID)
	if err != nil {
		return "", domainerrors.InvalidRequestf("malformed id %q", input.ID)
	}
	return id, nil
}

// resolutionError converts a non-found resolution into the error rendered at the HTTP edge.
func resolutionError(status resolver.Status, reason visibility.Reason, id string) error {
	switch status {
	case resolver.StatusNotFound:
		return domainerrors.NotFoundf("%s not found", id)
	case resolver.StatusDisabled:
		return domainerrors.Disabled(id + " has been removed or disabled").
			WithDetails(map[string]string{"reason": string(reason)})
	default:
		return nil
	}
}
