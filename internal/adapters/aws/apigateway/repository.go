// Package apigateway implements the gateway repository using the AWS SDK.
package apigateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"

	"github.com/spiritworld-dk/node-deploy/internal/awsx"
	"github.com/spiritworld-dk/node-deploy/internal/domain/gateway"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.GatewayRepository using the AWS SDK.
type Repository struct {
	client *awsapigw.Client
}

// NewRepository creates a new gateway repository.
func NewRepository(cfg aws.Config) ports.GatewayRepository {
	var options []func(*awsapigw.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awsapigw.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awsapigw.NewFromConfig(cfg, options...)}
}

// Find returns the API with the given name, or nil when none exists.
func (r *Repository) Find(ctx context.Context, name string) (*gateway.API, error) {
	var token *string
	for {
		var output *awsapigw.GetApisOutput
		err := awsx.RetryThrottle(ctx, func() error {
			var callErr error
			output, callErr = r.client.GetApis(ctx, &awsapigw.GetApisInput{NextToken: token})
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list APIs: %w", err)
		}

		for _, api := range output.Items {
			if aws.ToString(api.Name) == name {
				return mapToAPI(api), nil
			}
		}

		if output.NextToken == nil {
			return nil, nil
		}
		token = output.NextToken
	}
}

// CreateAPI creates the HTTP API with the derived CORS block.
func (r *Repository) CreateAPI(ctx context.Context, name string, cors *gateway.Cors) (*gateway.API, error) {
	input := &awsapigw.CreateApiInput{
		Name:              aws.String(name),
		ProtocolType:      types.ProtocolTypeHttp,
		CorsConfiguration: mapFromCors(cors),
	}

	var output *awsapigw.CreateApiOutput
	err := awsx.RetryThrottle(ctx, func() error {
		var callErr error
		output, callErr = r.client.CreateApi(ctx, input)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API: %w", err)
	}

	return &gateway.API{
		ID:       aws.ToString(output.ApiId),
		Name:     aws.ToString(output.Name),
		Endpoint: aws.ToString(output.ApiEndpoint),
		Cors:     cors,
	}, nil
}

// UpdateCors overwrites the API's CORS block.
func (r *Repository) UpdateCors(ctx context.Context, apiID string, cors *gateway.Cors) error {
	_, err := r.client.UpdateApi(ctx, &awsapigw.UpdateApiInput{
		ApiId:             aws.String(apiID),
		CorsConfiguration: mapFromCors(cors),
	})
	if err != nil {
		return fmt.Errorf("failed to update API CORS: %w", err)
	}
	return nil
}

// ListIntegrations returns the API's integrations in the lite shape, the
// function name recovered from each integration URI.
func (r *Repository) ListIntegrations(ctx context.Context, apiID string) ([]gateway.Integration, error) {
	var integrations []gateway.Integration
	var token *string
	for {
		output, err := r.client.GetIntegrations(ctx, &awsapigw.GetIntegrationsInput{
			ApiId:     aws.String(apiID),
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list integrations: %w", err)
		}

		for _, item := range output.Items {
			uri := aws.ToString(item.IntegrationUri)
			integrations = append(integrations, gateway.Integration{
				ID:            aws.ToString(item.IntegrationId),
				FunctionName:  gateway.FunctionNameFromURI(uri),
				URI:           uri,
				TimeoutMillis: aws.ToInt32(item.TimeoutInMillis),
			})
		}

		if output.NextToken == nil {
			return integrations, nil
		}
		token = output.NextToken
	}
}

// CreateIntegration creates a proxy integration and returns its ID.
func (r *Repository) CreateIntegration(ctx context.Context, apiID string, integration gateway.Integration) (string, error) {
	var output *awsapigw.CreateIntegrationOutput
	err := awsx.RetryThrottle(ctx, func() error {
		var callErr error
		output, callErr = r.client.CreateIntegration(ctx, &awsapigw.CreateIntegrationInput{
			ApiId:                aws.String(apiID),
			IntegrationType:      types.IntegrationTypeAwsProxy,
			IntegrationUri:       aws.String(integration.URI),
			PayloadFormatVersion: aws.String("2.0"),
			TimeoutInMillis:      aws.Int32(integration.TimeoutMillis),
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to create integration: %w", err)
	}
	return aws.ToString(output.IntegrationId), nil
}

// UpdateIntegration pushes the integration's URI and timeout.
func (r *Repository) UpdateIntegration(ctx context.Context, apiID string, integration gateway.Integration) error {
	_, err := r.client.UpdateIntegration(ctx, &awsapigw.UpdateIntegrationInput{
		ApiId:           aws.String(apiID),
		IntegrationId:   aws.String(integration.ID),
		IntegrationUri:  aws.String(integration.URI),
		TimeoutInMillis: aws.Int32(integration.TimeoutMillis),
	})
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	return nil
}

// DeleteIntegration removes an integration. Routes referencing it must be
// gone first.
func (r *Repository) DeleteIntegration(ctx context.Context, apiID, integrationID string) error {
	_, err := r.client.DeleteIntegration(ctx, &awsapigw.DeleteIntegrationInput{
		ApiId:         aws.String(apiID),
		IntegrationId: aws.String(integrationID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	return nil
}

// ListRoutes returns the API's routes with their target integration IDs.
func (r *Repository) ListRoutes(ctx context.Context, apiID string) ([]gateway.Route, error) {
	var routes []gateway.Route
	var token *string
	for {
		output, err := r.client.GetRoutes(ctx, &awsapigw.GetRoutesInput{
			ApiId:     aws.String(apiID),
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list routes: %w", err)
		}

		for _, item := range output.Items {
			routes = append(routes, gateway.Route{
				ID:            aws.ToString(item.RouteId),
				Key:           aws.ToString(item.RouteKey),
				IntegrationID: strings.TrimPrefix(aws.ToString(item.Target), "integrations/"),
			})
		}

		if output.NextToken == nil {
			return routes, nil
		}
		token = output.NextToken
	}
}

// CreateRoute creates a route pointing at its integration.
func (r *Repository) CreateRoute(ctx context.Context, apiID string, route gateway.Route) (string, error) {
	var output *awsapigw.CreateRouteOutput
	err := awsx.RetryThrottle(ctx, func() error {
		var callErr error
		output, callErr = r.client.CreateRoute(ctx, &awsapigw.CreateRouteInput{
			ApiId:    aws.String(apiID),
			RouteKey: aws.String(route.Key),
			Target:   aws.String("integrations/" + route.IntegrationID),
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to create route: %w", err)
	}
	return aws.ToString(output.RouteId), nil
}

// UpdateRoute pushes the route's key and target.
func (r *Repository) UpdateRoute(ctx context.Context, apiID string, route gateway.Route) error {
	_, err := r.client.UpdateRoute(ctx, &awsapigw.UpdateRouteInput{
		ApiId:    aws.String(apiID),
		RouteId:  aws.String(route.ID),
		RouteKey: aws.String(route.Key),
		Target:   aws.String("integrations/" + route.IntegrationID),
	})
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	return nil
}

// DeleteRoute removes a route.
func (r *Repository) DeleteRoute(ctx context.Context, apiID, routeID string) error {
	_, err := r.client.DeleteRoute(ctx, &awsapigw.DeleteRouteInput{
		ApiId:   aws.String(apiID),
		RouteId: aws.String(routeID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	return nil
}

// EnsureStage creates the default auto-deploy stage when missing.
func (r *Repository) EnsureStage(ctx context.Context, apiID string) error {
	output, err := r.client.GetStages(ctx, &awsapigw.GetStagesInput{
		ApiId: aws.String(apiID),
	})
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}
	for _, stage := range output.Items {
		if aws.ToString(stage.StageName) == gateway.DefaultStage {
			return nil
		}
	}

	_, err = r.client.CreateStage(ctx, &awsapigw.CreateStageInput{
		ApiId:      aws.String(apiID),
		StageName:  aws.String(gateway.DefaultStage),
		AutoDeploy: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

func mapToAPI(api types.Api) *gateway.API {
	mapped := &gateway.API{
		ID:       aws.ToString(api.ApiId),
		Name:     aws.ToString(api.Name),
		Endpoint: aws.ToString(api.ApiEndpoint),
	}
	if api.CorsConfiguration != nil {
		mapped.Cors = &gateway.Cors{
			AllowOrigins:     api.CorsConfiguration.AllowOrigins,
			AllowMethods:     api.CorsConfiguration.AllowMethods,
			AllowHeaders:     api.CorsConfiguration.AllowHeaders,
			AllowCredentials: aws.ToBool(api.CorsConfiguration.AllowCredentials),
			MaxAge:           aws.ToInt32(api.CorsConfiguration.MaxAge),
		}
	}
	return mapped
}

func mapFromCors(cors *gateway.Cors) *types.Cors {
	if cors == nil {
		return nil
	}
	return &types.Cors{
		AllowOrigins:     cors.AllowOrigins,
		AllowMethods:     cors.AllowMethods,
		AllowHeaders:     cors.AllowHeaders,
		AllowCredentials: aws.Bool(cors.AllowCredentials),
		MaxAge:           aws.Int32(cors.MaxAge),
	}
}
