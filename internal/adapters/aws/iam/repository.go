// Package iam implements the role repository using the AWS SDK.
package iam

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/spiritworld-dk/node-deploy/internal/awsx"
	"github.com/spiritworld-dk/node-deploy/internal/domain/iam"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.RoleRepository using the AWS SDK.
type Repository struct {
	client *awsiam.Client
}

// NewRepository creates a new role repository.
func NewRepository(cfg aws.Config) ports.RoleRepository {
	var options []func(*awsiam.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awsiam.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awsiam.NewFromConfig(cfg, options...)}
}

// Get returns the role, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, name string) (*iam.Role, error) {
	output, err := r.client.GetRole(ctx, &awsiam.GetRoleInput{
		RoleName: aws.String(name),
	})
	if err != nil {
		if awsx.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &iam.Role{
		Name: aws.ToString(output.Role.RoleName),
		ARN:  aws.ToString(output.Role.Arn),
	}, nil
}

// Create creates the execution role with the fixed compute trust policy.
func (r *Repository) Create(ctx context.Context, name string) (*iam.Role, error) {
	var output *awsiam.CreateRoleOutput
	err := awsx.RetryThrottle(ctx, func() error {
		var callErr error
		output, callErr = r.client.CreateRole(ctx, &awsiam.CreateRoleInput{
			RoleName:                 aws.String(name),
			AssumeRolePolicyDocument: aws.String(iam.AssumeRolePolicy),
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return &iam.Role{
		Name: aws.ToString(output.Role.RoleName),
		ARN:  aws.ToString(output.Role.Arn),
	}, nil
}

// PutPolicy overwrites the role's inline policy document whole.
func (r *Repository) PutPolicy(ctx context.Context, roleName, policyName, document string) error {
	err := awsx.RetryConflict(ctx, func() error {
		_, callErr := r.client.PutRolePolicy(ctx, &awsiam.PutRolePolicyInput{
			RoleName:       aws.String(roleName),
			PolicyName:     aws.String(policyName),
			PolicyDocument: aws.String(document),
		})
		return callErr
	})
	if err != nil {
		return fmt.Errorf("failed to put role policy: %w", err)
	}
	return nil
}
