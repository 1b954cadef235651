package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/packdex/packdex-server/internal/api/dto"
	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/search"
	"github.com/packdex/packdex-server/internal/service"
)

// maxManifestSize bounds POST /packs bodies (32 MB).
const maxManifestSize = 32 << 20

func (s *Server) registerTenantPackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTenantPacks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/packs",
		Summary:     "List enabled packs",
		Description: "Returns the tenant's enabled packs, built-in first, then in install order",
		Tags:        []string{"Tenant packs"},
	}, s.handleListTenantPacks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "installTenantPack",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants/{tenant}/packs",
		Summary:       "Install pack",
		Description:   "Enables an available community pack for the tenant",
		Tags:          []string{"Tenant packs"},
		DefaultStatus: http.StatusCreated,
	}, s.handleInstallTenantPack)

	huma.Register(s.api, huma.Operation{
		OperationID: "uninstallTenantPack",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{tenant}/packs/{pack}",
		Summary:     "Uninstall pack",
		Description: "Disables a community pack for the tenant",
		Tags:        []string{"Tenant packs"},
	}, s.handleUninstallTenantPack)
}

func (s *Server) registerDisabledRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDisabled",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{tenant}/disabled",
		Summary:     "List disabled records",
		Description: "Returns the records the tenant disabled by hand",
		Tags:        []string{"Tenant packs"},
	}, s.handleListDisabled)

	huma.Register(s.api, huma.Operation{
		OperationID: "disableEntity",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{tenant}/disabled/{id}",
		Summary:     "Disable record",
		Description: "Hides a record from the tenant. Characters only appearing in disabled media are hidden too.",
		Tags:        []string{"Tenant packs"},
	}, s.handleDisableEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "enableEntity",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{tenant}/disabled/{id}",
		Summary:     "Re-enable record",
		Description: "Removes a manual disable",
		Tags:        []string{"Tenant packs"},
	}, s.handleEnableEntity)
}

func (s *Server) registerPackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchPacks",
		Method:      http.MethodGet,
		Path:        "/api/v1/packs",
		Summary:     "Search pack directory",
		Description: "Searches the community packs available for installation",
		Tags:        []string{"Packs"},
	}, s.handleSearchPacks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitPack",
		Method:        http.MethodPost,
		Path:          "/api/v1/packs",
		Summary:       "Submit pack",
		Description:   "Validates a community pack manifest (JSON or YAML) and makes it available for installation",
		Tags:          []string{"Packs"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxManifestSize,
	}, s.handleSubmitPack)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPack",
		Method:      http.MethodGet,
		Path:        "/api/v1/packs/{pack}",
		Summary:     "Get pack",
		Description: "Returns the metadata of an available pack",
		Tags:        []string{"Packs"},
	}, s.handleGetPack)

	huma.Register(s.api, huma.Operation{
		OperationID: "withdrawPack",
		Method:      http.MethodDelete,
		Path:        "/api/v1/packs/{pack}",
		Summary:     "Withdraw pack",
		Description: "Removes a pack from the library. Tenants that installed it keep their copy.",
		Tags:        []string{"Packs"},
	}, s.handleWithdrawPack)
}

// === DTOs ===

// TenantInput identifies a tenant.
type TenantInput struct {
	Tenant string `path:"tenant" doc:"Tenant id"`
}

// TenantPacksResponse lists a tenant's enabled packs.
type TenantPacksResponse struct {
	Packs []service.InstalledPack `json:"packs" doc:"Enabled packs, built-in first"`
}

// TenantPacksOutput wraps the tenant packs response for Huma.
type TenantPacksOutput struct {
	Body TenantPacksResponse
}

// InstallPackInput contains the install request.
type InstallPackInput struct {
	Tenant string `path:"tenant" doc:"Tenant id"`
	Body   struct {
		PackID      string `json:"pack_id" minLength:"1" maxLength:"64" doc:"Pack to install"`
		InstalledBy string `json:"installed_by,omitempty" maxLength:"128" doc:"Who installed the pack"`
	}
}

// InstallPackOutput wraps the install record for Huma.
type InstallPackOutput struct {
	Body domain.PackInstall
}

// TenantPackInput identifies one pack of a tenant.
type TenantPackInput struct {
	Tenant string `path:"tenant" doc:"Tenant id"`
	Pack   string `path:"pack" doc:"Pack id"`
}

// DisabledResponse lists manually disabled records.
type DisabledResponse struct {
	Disabled []domain.CompositeID `json:"disabled" doc:"Composite ids, sorted"`
}

// DisabledOutput wraps the disabled list for Huma.
type DisabledOutput struct {
	Body DisabledResponse
}

// SearchPacksInput contains directory search parameters.
type SearchPacksInput struct {
	Q      string `query:"q" maxLength:"256" doc:"Search text; empty lists every pack"`
	NSFW   bool   `query:"nsfw" doc:"Include packs marked NSFW"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Results to skip"`
}

// SearchPacksOutput wraps the directory result for Huma.
type SearchPacksOutput struct {
	Body search.Result
}

// SubmitPackInput carries a raw manifest.
type SubmitPackInput struct {
	ContentType string `header:"Content-Type" doc:"application/json or application/yaml"`
	RawBody     []byte
}

// SubmitPackOutput wraps the submit result for Huma. Replacing an existing pack answers 200.
type SubmitPackOutput struct {
	Status int
	Body   service.SubmitResult
}

// PackInput identifies a library pack.
type PackInput struct {
	Pack string `path:"pack" doc:"Pack id"`
}

// PackOutput wraps pack metadata for Huma.
type PackOutput struct {
	Body catalog.Info
}

// === Handlers ===

func (s *Server) handleListTenantPacks(ctx context.Context, input *TenantInput) (*TenantPacksOutput, error) {
	packs, err := s.services.Packs.Installed(ctx, input.Tenant)
	if err != nil {
		return nil, err
	}
	return &TenantPacksOutput{Body: TenantPacksResponse{Packs: packs}}, nil
}

func (s *Server) handleInstallTenantPack(ctx context.Context, input *InstallPackInput) (*InstallPackOutput, error) {
	rec, err := s.services.Packs.Install(ctx, service.InstallPackRequest{
		TenantID:    input.Tenant,
		PackID:      input.Body.PackID,
		InstalledBy: input.Body.InstalledBy,
	})
	if err != nil {
		return nil, err
	}
	return &InstallPackOutput{Body: rec}, nil
}

func (s *Server) handleUninstallTenantPack(ctx context.Context, input *TenantPackInput) (*dto.MessageOutput, error) {
	if err := s.services.Packs.Uninstall(ctx, input.Tenant, input.Pack); err != nil {
		return nil, err
	}
	return dto.Message("Pack uninstalled"), nil
}

func (s *Server) handleListDisabled(ctx context.Context, input *TenantInput) (*DisabledOutput, error) {
	ids, err := s.services.Packs.Disabled(ctx, input.Tenant)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []domain.CompositeID{}
	}
	return &DisabledOutput{Body: DisabledResponse{Disabled: ids}}, nil
}

func (s *Server) handleDisableEntity(ctx context.Context, input *EntityInput) (*dto.MessageOutput, error) {
	return s.setDisabled(ctx, input, true)
}

func (s *Server) handleEnableEntity(ctx context.Context, input *EntityInput) (*dto.MessageOutput, error) {
	return s.setDisabled(ctx, input, false)
}

func (s *Server) setDisabled(ctx context.Context, input *EntityInput, disabled bool) (*dto.MessageOutput, error) {
	id, err := entityParam(input)
	if err != nil {
		return nil, err
	}
	if err := s.services.Packs.SetDisabled(ctx, input.Tenant, id, disabled); err != nil {
		return nil, err
	}
	if disabled {
		return dto.Message("Record disabled"), nil
	}
	return dto.Message("Record enabled"), nil
}

func (s *Server) handleSearchPacks(ctx context.Context, input *SearchPacksInput) (*SearchPacksOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Q
	params.IncludeNSFW = input.NSFW
	params.Offset = input.Offset
	if input.Limit > 0 {
		params.Limit = input.Limit
	}

	result, err := s.services.Packs.Available(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchPacksOutput{Body: *result}, nil
}

func (s *Server) handleSubmitPack(ctx context.Context, input *SubmitPackInput) (*SubmitPackOutput, error) {
	result, err := s.services.Packs.SubmitFrom(ctx, bytes.NewReader(input.RawBody), manifestFormat(input.ContentType))
	if err != nil {
		return nil, err
	}

	status := http.StatusCreated
	if result.Replaced {
		status = http.StatusOK
	}
	return &SubmitPackOutput{Status: status, Body: *result}, nil
}

func (s *Server) handleGetPack(_ context.Context, input *PackInput) (*PackOutput, error) {
	info, err := s.services.Packs.Get(input.Pack)
	if err != nil {
		return nil, err
	}
	return &PackOutput{Body: info}, nil
}

func (s *Server) handleWithdrawPack(ctx context.Context, input *PackInput) (*dto.MessageOutput, error) {
	if err := s.services.Packs.Withdraw(ctx, input.Pack); err != nil {
		return nil, err
	}
	return dto.Message("Pack withdrawn"), nil
}

// manifestFormat picks the decoder from a Content-Type header. Anything but YAML is read as JSON.
func manifestFormat(contentType string) catalog.Format {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if strings.HasSuffix(mediaType, "yaml") || strings.HasSuffix(mediaType, "yml") {
		return catalog.FormatYAML
	}
	return catalog.FormatJSON
}
