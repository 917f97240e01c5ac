// Package deploy orchestrates a full service deployment: execution role,
// function set, gateway graph, invoke permissions, role policy and the
// alerting side branch, in dependency order.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/gateway"
	"github.com/spiritworld-dk/node-deploy/internal/domain/iam"
	"github.com/spiritworld-dk/node-deploy/internal/envres"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
	alertinguc "github.com/spiritworld-dk/node-deploy/internal/usecases/alerting"
	functionsuc "github.com/spiritworld-dk/node-deploy/internal/usecases/functions"
	gatewayuc "github.com/spiritworld-dk/node-deploy/internal/usecases/gateway"
	roleuc "github.com/spiritworld-dk/node-deploy/internal/usecases/role"
	triggeruc "github.com/spiritworld-dk/node-deploy/internal/usecases/trigger"
	"github.com/spiritworld-dk/node-deploy/pkg/metrics"
)

// ErrNoFunctions is returned when a deployment declares no functions;
// there would be nothing to route to.
var ErrNoFunctions = errors.New("deployment declares no functions")

// Deployment is the full declared state of one service in one environment.
type Deployment struct {
	// Env is the deployment environment name, used as the namespace prefix
	// for every remote resource.
	Env string

	Service string

	Functions []function.Desired

	// Sources maps function name to finished source text.
	Sources map[string]string

	// Environment is the declared variable template, resolved against the
	// run snapshot before the function sync.
	Environment envres.Template

	// AllowedOrigins drives the gateway CORS configuration.
	AllowedOrigins []string

	// PolicyStatements are appended to the role's baseline inline policy.
	PolicyStatements []iam.Statement

	// Alert configures the alerting side branch; nil disables it.
	Alert *alert.Config
}

// State is the run snapshot: every remote resource is read exactly once,
// up front, and the sync steps work against this copy.
type State struct {
	Role      *iam.Role
	Functions []function.Remote
	Gateway   *gateway.API
}

// Syncer wires the per-resource usecases into one deployment run.
type Syncer struct {
	Roles     *roleuc.UseCase
	Functions *functionsuc.UseCase
	Gateways  *gatewayuc.UseCase
	Triggers  *triggeruc.UseCase
	Alerting  *alertinguc.UseCase

	FunctionRepo ports.FunctionRepository
	GatewayRepo  ports.GatewayRepository
	RoleRepo     ports.RoleRepository

	Log *zap.Logger
}

// Deploy converges every remote resource onto the declared state and
// returns the service's public base URL. Alerting failures are reported
// and swallowed; everything else aborts the run.
func (s *Syncer) Deploy(ctx context.Context, d Deployment) (string, error) {
	if len(d.Functions) == 0 {
		return "", ErrNoFunctions
	}

	state, err := s.snapshot(ctx, d)
	if err != nil {
		return "", err
	}

	environment, err := s.resolveEnvironment(ctx, d, state.Functions)
	if err != nil {
		return "", err
	}

	start := time.Now()
	execRole, err := s.Roles.Ensure(ctx, iam.RoleName(d.Env, d.Service), state.Role)
	metrics.ObserveSync("role", start, err)
	if err != nil {
		return "", err
	}

	var safe []string
	if d.Alert.Enabled() {
		safe = []string{alert.ListenerName()}
	}

	start = time.Now()
	remotes, err := s.Functions.Sync(ctx, functionsuc.SyncInput{
		Prefix:      d.Env,
		Service:     d.Service,
		Desired:     d.Functions,
		Sources:     d.Sources,
		Environment: environment,
		RoleARN:     execRole.ARN,
		Current:     state.Functions,
		Safe:        safe,
	})
	metrics.ObserveSync("functions", start, err)
	if err != nil {
		return "", err
	}

	region, account, err := iam.ParseFunctionARN(remotes[0].ARN)
	if err != nil {
		return "", err
	}

	start = time.Now()
	api, err := s.Gateways.Sync(ctx, gatewayuc.SyncInput{
		Name:    d.Env + "-" + d.Service,
		Desired: d.Functions,
		Remotes: remotes,
		Origins: d.AllowedOrigins,
		Current: state.Gateway,
	})
	metrics.ObserveSync("gateway", start, err)
	if err != nil {
		return "", err
	}

	remoteNames := make([]string, len(remotes))
	for i, remote := range remotes {
		remoteNames[i] = function.RemoteName(d.Env, d.Service, remote.Name)
	}

	start = time.Now()
	err = s.Triggers.EnsureGatewayInvoke(ctx, remoteNames, region, account, api.ID)
	metrics.ObserveSync("triggers", start, err)
	if err != nil {
		return "", err
	}

	if err := s.Roles.AssignPolicy(ctx, execRole.Name, region, account, d.PolicyStatements); err != nil {
		return "", err
	}

	// Alerting is strictly best-effort; a broken pipeline never rolls back
	// or fails an otherwise healthy deployment.
	start = time.Now()
	alertErr := s.Alerting.Setup(ctx, alertinguc.SetupInput{
		Prefix:    d.Env,
		Service:   d.Service,
		Config:    d.Alert,
		RoleARN:   execRole.ARN,
		Monitored: remotes,
	})
	metrics.ObserveSync("alerting", start, alertErr)
	if alertErr != nil {
		s.Log.Warn("Alerting setup failed, continuing.", zap.Error(alertErr))
	}

	return fmt.Sprintf("https://%s.execute-api.%s.amazonaws.com/", api.ID, region), nil
}

// ResolveEnvironment resolves the declared template without deploying
// anything; the env subcommand uses it.
func (s *Syncer) ResolveEnvironment(ctx context.Context, d Deployment) (map[string]string, error) {
	current, err := s.FunctionRepo.List(ctx, d.Env, d.Service)
	if err != nil {
		return nil, err
	}
	return s.resolveEnvironment(ctx, d, current)
}

func (s *Syncer) resolveEnvironment(ctx context.Context, d Deployment, current []function.Remote) (map[string]string, error) {
	engine := &envres.Engine{
		Env:     d.Env,
		Service: d.Service,
		Prior:   priorEnvironment(current),
		Resolver: &remoteResolver{
			prefix:    d.Env,
			functions: s.FunctionRepo,
			gateways:  s.GatewayRepo,
		},
		Log: s.Log,
	}
	resolved, err := engine.Resolve(ctx, d.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve environment: %w", err)
	}
	return resolved, nil
}

// snapshot reads the role, the deployed function set and the API once,
// concurrently. Every sync step diffs against this snapshot instead of
// re-reading remote state.
func (s *Syncer) snapshot(ctx context.Context, d Deployment) (*State, error) {
	var state State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		role, err := s.RoleRepo.Get(gctx, iam.RoleName(d.Env, d.Service))
		state.Role = role
		return err
	})
	g.Go(func() error {
		remotes, err := s.FunctionRepo.List(gctx, d.Env, d.Service)
		state.Functions = remotes
		return err
	})
	g.Go(func() error {
		api, err := s.GatewayRepo.Find(gctx, d.Env+"-"+d.Service)
		state.Gateway = api
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to snapshot remote state: %w", err)
	}
	return &state, nil
}

// priorEnvironment extracts the previously deployed variable mapping. All
// functions of a service share one environment, so the first one suffices.
func priorEnvironment(remotes []function.Remote) map[string]string {
	for _, remote := range remotes {
		if remote.Name == alert.ListenerName() {
			continue
		}
		return remote.Environment
	}
	return nil
}
