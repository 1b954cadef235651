package api

import (
	"github.com/packdex/packdex-server/internal/resolver"
	"github.com/packdex/packdex-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Resolver *resolver.Resolver
	Packs    *service.PackService
}
