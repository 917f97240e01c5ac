package deploy

import (
	"context"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// remoteResolver supplies cross-service data to the environment engine by
// reading the referenced service's deployed functions and API.
type remoteResolver struct {
	prefix    string
	functions ports.FunctionRepository
	gateways  ports.GatewayRepository
}

// Environment returns the referenced service's deployed variable mapping.
// An undeployed service yields an empty mapping; the engine turns a lookup
// into it into an error naming the missing key.
func (r *remoteResolver) Environment(ctx context.Context, service string) (map[string]string, error) {
	remotes, err := r.functions.List(ctx, r.prefix, service)
	if err != nil {
		return nil, err
	}
	for _, remote := range remotes {
		if remote.Name == alert.ListenerName() {
			continue
		}
		return remote.Environment, nil
	}
	return map[string]string{}, nil
}

// BaseURL returns the referenced service's public base URL, or "" when the
// service has no API yet.
func (r *remoteResolver) BaseURL(ctx context.Context, service string) (string, error) {
	api, err := r.gateways.Find(ctx, r.prefix+"-"+service)
	if err != nil {
		return "", err
	}
	if api == nil || api.Endpoint == "" {
		return "", nil
	}
	return api.Endpoint + "/", nil
}
