package ports

import (
	"context"

	"github.com/spiritworld-dk/node-deploy/internal/domain/gateway"
)

// GatewayRepository wraps the HTTP gateway's API, integration, route and
// stage resources.
type GatewayRepository interface {
	// Find returns the API with the given name, or nil when none exists.
	Find(ctx context.Context, name string) (*gateway.API, error)

	CreateAPI(ctx context.Context, name string, cors *gateway.Cors) (*gateway.API, error)
	UpdateCors(ctx context.Context, apiID string, cors *gateway.Cors) error

	ListIntegrations(ctx context.Context, apiID string) ([]gateway.Integration, error)
	CreateIntegration(ctx context.Context, apiID string, integration gateway.Integration) (string, error)
	UpdateIntegration(ctx context.Context, apiID string, integration gateway.Integration) error
	DeleteIntegration(ctx context.Context, apiID, integrationID string) error

	ListRoutes(ctx context.Context, apiID string) ([]gateway.Route, error)
	CreateRoute(ctx context.Context, apiID string, route gateway.Route) (string, error)
	UpdateRoute(ctx context.Context, apiID string, route gateway.Route) error
	DeleteRoute(ctx context.Context, apiID, routeID string) error

	// EnsureStage creates the default auto-deploy stage when missing.
	EnsureStage(ctx context.Context, apiID string) error
}
