// Package lambda implements the function repository using the AWS SDK.
package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/spiritworld-dk/node-deploy/internal/awsx"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.FunctionRepository using the AWS SDK.
type Repository struct {
	client *awslambda.Client
}

// NewRepository creates a new function repository.
func NewRepository(cfg aws.Config) ports.FunctionRepository {
	var options []func(*awslambda.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awslambda.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awslambda.NewFromConfig(cfg, options...)}
}

// List returns every deployed function in the (prefix, service) namespace,
// names stripped to their local form. Pagination continues until the
// platform reports no further marker.
func (r *Repository) List(ctx context.Context, prefix, service string) ([]function.Remote, error) {
	var remotes []function.Remote
	var marker *string
	for {
		var output *awslambda.ListFunctionsOutput
		err := awsx.RetryThrottle(ctx, func() error {
			var callErr error
			output, callErr = r.client.ListFunctions(ctx, &awslambda.ListFunctionsInput{
				Marker: marker,
			})
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list functions: %w", err)
		}

		for _, cfg := range output.Functions {
			name, ok := function.LocalName(prefix, service, aws.ToString(cfg.FunctionName))
			if !ok {
				continue
			}
			remotes = append(remotes, mapToRemote(name, cfg))
		}

		if output.NextMarker == nil {
			return remotes, nil
		}
		marker = output.NextMarker
	}
}

// Create deploys a new function and returns its assigned identifier. A
// freshly created execution role may not have propagated yet, so creation
// is retried on conflict.
func (r *Repository) Create(ctx context.Context, spec function.Spec) (string, error) {
	input := &awslambda.CreateFunctionInput{
		FunctionName:  aws.String(spec.RemoteName),
		Runtime:       types.Runtime(spec.Runtime),
		Handler:       aws.String(function.Handler),
		Role:          aws.String(spec.RoleARN),
		MemorySize:    aws.Int32(spec.MemorySize),
		Timeout:       aws.Int32(spec.Timeout),
		Architectures: []types.Architecture{types.Architecture(spec.Architecture)},
		Code:          &types.FunctionCode{ZipFile: spec.Archive},
	}
	if len(spec.Environment) > 0 {
		input.Environment = &types.Environment{Variables: spec.Environment}
	}

	var output *awslambda.CreateFunctionOutput
	err := awsx.RetryConflict(ctx, func() error {
		return awsx.RetryThrottle(ctx, func() error {
			var callErr error
			output, callErr = r.client.CreateFunction(ctx, input)
			return callErr
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to create function: %w", err)
	}

	return aws.ToString(output.FunctionArn), nil
}

// UpdateConfiguration pushes runtime, memory, timeout and environment.
func (r *Repository) UpdateConfiguration(ctx context.Context, spec function.Spec) error {
	input := &awslambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(spec.RemoteName),
		Runtime:      types.Runtime(spec.Runtime),
		Handler:      aws.String(function.Handler),
		Role:         aws.String(spec.RoleARN),
		MemorySize:   aws.Int32(spec.MemorySize),
		Timeout:      aws.Int32(spec.Timeout),
		Environment:  &types.Environment{Variables: spec.Environment},
	}

	if _, err := r.client.UpdateFunctionConfiguration(ctx, input); err != nil {
		return fmt.Errorf("failed to update function configuration: %w", err)
	}
	return nil
}

// UpdateCode pushes a new code archive.
func (r *Repository) UpdateCode(ctx context.Context, remoteName string, archive []byte) error {
	_, err := r.client.UpdateFunctionCode(ctx, &awslambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(remoteName),
		ZipFile:      archive,
	})
	if err != nil {
		return fmt.Errorf("failed to update function code: %w", err)
	}
	return nil
}

// Delete removes a function.
func (r *Repository) Delete(ctx context.Context, remoteName string) error {
	_, err := r.client.DeleteFunction(ctx, &awslambda.DeleteFunctionInput{
		FunctionName: aws.String(remoteName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete function: %w", err)
	}
	return nil
}

// policyDocument mirrors the wire shape of a function's resource policy.
type policyDocument struct {
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string `json:"Sid"`
	Action    string `json:"Action"`
	Principal struct {
		Service string `json:"Service"`
	} `json:"Principal"`
	Condition struct {
		ArnLike map[string]string `json:"ArnLike"`
	} `json:"Condition"`
}

// Policy returns the function's permission statements in the lite shape.
// An absent policy is an empty list.
func (r *Repository) Policy(ctx context.Context, remoteName string) ([]trigger.Statement, error) {
	output, err := r.client.GetPolicy(ctx, &awslambda.GetPolicyInput{
		FunctionName: aws.String(remoteName),
	})
	if err != nil {
		if awsx.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get function policy: %w", err)
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(aws.ToString(output.Policy)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse function policy: %w", err)
	}

	statements := make([]trigger.Statement, 0, len(doc.Statement))
	for _, s := range doc.Statement {
		statements = append(statements, trigger.Statement{
			ID:        s.Sid,
			Principal: s.Principal.Service,
			Action:    s.Action,
			SourceARN: s.Condition.ArnLike["AWS:SourceArn"],
		})
	}
	return statements, nil
}

// AddPermission attaches a statement under the given statement ID.
func (r *Repository) AddPermission(ctx context.Context, remoteName, id string, st trigger.Statement) error {
	_, err := r.client.AddPermission(ctx, &awslambda.AddPermissionInput{
		FunctionName: aws.String(remoteName),
		StatementId:  aws.String(id),
		Action:       aws.String(st.Action),
		Principal:    aws.String(st.Principal),
		SourceArn:    aws.String(st.SourceARN),
	})
	if err != nil {
		return fmt.Errorf("failed to add permission: %w", err)
	}
	return nil
}

// RemovePermission detaches a statement by ID.
func (r *Repository) RemovePermission(ctx context.Context, remoteName, id string) error {
	_, err := r.client.RemovePermission(ctx, &awslambda.RemovePermissionInput{
		FunctionName: aws.String(remoteName),
		StatementId:  aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to remove permission: %w", err)
	}
	return nil
}

func mapToRemote(name string, cfg types.FunctionConfiguration) function.Remote {
	remote := function.Remote{
		ARN:        aws.ToString(cfg.FunctionArn),
		Name:       name,
		Runtime:    string(cfg.Runtime),
		MemorySize: aws.ToInt32(cfg.MemorySize),
		Timeout:    aws.ToInt32(cfg.Timeout),
		CodeSHA256: aws.ToString(cfg.CodeSha256),
	}
	if cfg.Environment != nil {
		remote.Environment = cfg.Environment.Variables
	}
	for _, arch := range cfg.Architectures {
		remote.Architectures = append(remote.Architectures, string(arch))
	}
	return remote
}
