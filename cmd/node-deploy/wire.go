package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/apigateway"
	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/cloudwatch"
	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/cloudwatchlogs"
	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/iam"
	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/lambda"
	"github.com/spiritworld-dk/node-deploy/internal/adapters/aws/sns"
	"github.com/spiritworld-dk/node-deploy/internal/manifest"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/alerting"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/deploy"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/functions"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/gateway"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/role"
	"github.com/spiritworld-dk/node-deploy/internal/usecases/trigger"
	"github.com/spiritworld-dk/node-deploy/pkg/awsconf"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newSyncer builds the full dependency graph for one run: SDK config,
// repositories, per-resource usecases, orchestrator.
func newSyncer(ctx context.Context, doc *manifest.Document, log *zap.Logger) (*deploy.Syncer, error) {
	cfg, err := awsconf.Load(ctx, doc.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure AWS client: %w", err)
	}

	functionRepo := lambda.NewRepository(cfg)
	gatewayRepo := apigateway.NewRepository(cfg)
	roleRepo := iam.NewRepository(cfg)

	triggers := &trigger.UseCase{Functions: functionRepo, Log: log}

	return &deploy.Syncer{
		Roles:     &role.UseCase{Repo: roleRepo, Log: log},
		Functions: &functions.UseCase{Repo: functionRepo, Log: log},
		Gateways:  &gateway.UseCase{Repo: gatewayRepo, Log: log},
		Triggers:  triggers,
		Alerting: &alerting.UseCase{
			Functions: functionRepo,
			Topics:    sns.NewRepository(cfg),
			Logs:      cloudwatchlogs.NewRepository(cfg),
			Alarms:    cloudwatch.NewRepository(cfg),
			Triggers:  triggers,
			Log:       log,
		},
		FunctionRepo: functionRepo,
		GatewayRepo:  gatewayRepo,
		RoleRepo:     roleRepo,
		Log:          log,
	}, nil
}
