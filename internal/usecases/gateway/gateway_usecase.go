// Package gateway implements the HTTP entry point sync logic: one API,
// one integration and one route per function, and a default stage.
package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spiritworld-dk/node-deploy/internal/diff"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/gateway"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// UseCase converges the deployed gateway onto the declared function set.
type UseCase struct {
	Repo ports.GatewayRepository
	Log  *zap.Logger
}

// SyncInput is everything one gateway sync run consumes.
type SyncInput struct {
	// Name is the API name, shared with the (prefix, service) namespace.
	Name string

	// Desired is the declared function list; Remotes the deployed
	// counterparts from the function sync, in the same order.
	Desired []function.Desired
	Remotes []function.Remote

	// Origins is the website's allowed origins list driving CORS.
	Origins []string

	// Current is the API from the run snapshot, nil on first deploy.
	Current *gateway.API
}

// Sync creates or reconciles the whole gateway object graph and returns
// the API.
func (uc *UseCase) Sync(ctx context.Context, in SyncInput) (*gateway.API, error) {
	desiredIntegrations, desiredRoutes := uc.desired(in)
	cors := gateway.CorsForOrigins(in.Origins)

	if in.Current == nil {
		return uc.create(ctx, in.Name, cors, desiredIntegrations, desiredRoutes)
	}
	return uc.reconcile(ctx, in.Current, cors, desiredIntegrations, desiredRoutes)
}

// desired derives the integration and route sets from the declared
// functions. Both are keyed by the deployed function name recovered from
// the ARN, the same name ListIntegrations recovers from an integration
// URI, so the two sides diff against each other.
func (uc *UseCase) desired(in SyncInput) ([]gateway.Integration, []gateway.Route) {
	integrations := make([]gateway.Integration, 0, len(in.Desired))
	routes := make([]gateway.Route, 0, len(in.Desired))
	for i, d := range in.Desired {
		remote := in.Remotes[i]
		name := gateway.FunctionNameFromURI(remote.ARN)
		integrations = append(integrations, gateway.Integration{
			FunctionName:  name,
			URI:           remote.ARN,
			TimeoutMillis: gateway.IntegrationTimeout(d.Timeout()),
		})
		routes = append(routes, gateway.Route{
			Key:          gateway.RouteKey(d.Method, d.Path),
			FunctionName: name,
		})
	}
	return integrations, routes
}

// create builds the full object graph from scratch in dependency order:
// API, integrations, routes, stage.
func (uc *UseCase) create(ctx context.Context, name string, cors *gateway.Cors, integrations []gateway.Integration, routes []gateway.Route) (*gateway.API, error) {
	uc.Log.Info("Creating API.", zap.String("api", name))
	api, err := uc.Repo.CreateAPI(ctx, name, cors)
	if err != nil {
		return nil, err
	}

	nameToID, err := uc.createIntegrations(ctx, api.ID, integrations)
	if err != nil {
		return nil, err
	}

	for _, route := range routes {
		route.IntegrationID = nameToID[route.FunctionName]
		uc.Log.Debug("Creating route.", zap.String("route", route.Key))
		if _, err := uc.Repo.CreateRoute(ctx, api.ID, route); err != nil {
			return nil, err
		}
	}

	if err := uc.Repo.EnsureStage(ctx, api.ID); err != nil {
		return nil, err
	}
	return api, nil
}

// reconcile diffs integrations and routes against the desired set.
// Creation order is integrations before routes; deletion order is routes
// before integrations, so no route ever references a missing integration.
func (uc *UseCase) reconcile(ctx context.Context, api *gateway.API, cors *gateway.Cors, desiredIntegrations []gateway.Integration, desiredRoutes []gateway.Route) (*gateway.API, error) {
	if !cors.Equal(api.Cors) {
		uc.Log.Info("Updating API CORS.", zap.String("api", api.ID))
		if err := uc.Repo.UpdateCors(ctx, api.ID, cors); err != nil {
			return nil, err
		}
		api.Cors = cors
	}

	currentIntegrations, err := uc.Repo.ListIntegrations(ctx, api.ID)
	if err != nil {
		return nil, err
	}

	idToName := make(map[string]string, len(currentIntegrations))
	nameToID := make(map[string]string, len(currentIntegrations))
	for _, integration := range currentIntegrations {
		idToName[integration.ID] = integration.FunctionName
		nameToID[integration.FunctionName] = integration.ID
	}

	idiff := diff.ByName(desiredIntegrations, currentIntegrations)

	created, err := uc.createIntegrations(ctx, api.ID, idiff.Missing)
	if err != nil {
		return nil, err
	}
	for name, id := range created {
		nameToID[name] = id
	}

	for _, m := range idiff.Existing {
		if m.Desired.URI != m.Current.URI || m.Desired.TimeoutMillis != m.Current.TimeoutMillis {
			update := m.Desired
			update.ID = m.Current.ID
			uc.Log.Debug("Updating integration.", zap.String("function", update.FunctionName))
			if err := uc.Repo.UpdateIntegration(ctx, api.ID, update); err != nil {
				return nil, err
			}
		}
	}

	currentRoutes, err := uc.Repo.ListRoutes(ctx, api.ID)
	if err != nil {
		return nil, err
	}
	for i := range currentRoutes {
		currentRoutes[i].FunctionName = idToName[currentRoutes[i].IntegrationID]
	}

	rdiff := diff.ByName(desiredRoutes, currentRoutes)

	// Surplus routes go first: a replaced function keeps its route key, and
	// the platform rejects duplicate keys.
	for _, route := range rdiff.Surplus {
		uc.Log.Debug("Deleting surplus route.", zap.String("route", route.Key))
		if err := uc.Repo.DeleteRoute(ctx, api.ID, route.ID); err != nil {
			return nil, err
		}
	}

	for _, route := range rdiff.Missing {
		route.IntegrationID = nameToID[route.FunctionName]
		uc.Log.Debug("Creating route.", zap.String("route", route.Key))
		if _, err := uc.Repo.CreateRoute(ctx, api.ID, route); err != nil {
			return nil, err
		}
	}

	for _, m := range rdiff.Existing {
		wantTarget := nameToID[m.Desired.FunctionName]
		if m.Desired.Key != m.Current.Key || wantTarget != m.Current.IntegrationID {
			update := m.Desired
			update.ID = m.Current.ID
			update.IntegrationID = wantTarget
			uc.Log.Debug("Updating route.", zap.String("route", update.Key))
			if err := uc.Repo.UpdateRoute(ctx, api.ID, update); err != nil {
				return nil, err
			}
		}
	}

	for _, integration := range idiff.Surplus {
		uc.Log.Debug("Deleting surplus integration.", zap.String("function", integration.FunctionName))
		if err := uc.Repo.DeleteIntegration(ctx, api.ID, integration.ID); err != nil {
			return nil, err
		}
	}

	if err := uc.Repo.EnsureStage(ctx, api.ID); err != nil {
		return nil, err
	}
	return api, nil
}

// createIntegrations creates the missing integrations concurrently; they
// have no dependencies among each other.
func (uc *UseCase) createIntegrations(ctx context.Context, apiID string, integrations []gateway.Integration) (map[string]string, error) {
	ids := make([]string, len(integrations))
	g, gctx := errgroup.WithContext(ctx)
	for i, integration := range integrations {
		i, integration := i, integration
		g.Go(func() error {
			uc.Log.Debug("Creating integration.", zap.String("function", integration.FunctionName))
			id, err := uc.Repo.CreateIntegration(gctx, apiID, integration)
			if err != nil {
				return fmt.Errorf("failed to create integration for %q: %w", integration.FunctionName, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nameToID := make(map[string]string, len(integrations))
	for i, integration := range integrations {
		nameToID[integration.FunctionName] = ids[i]
	}
	return nameToID, nil
}
