// Package cloudwatchlogs implements the log group and metric filter
// repository using the AWS SDK.
package cloudwatchlogs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.LogsRepository using the AWS SDK.
type Repository struct {
	client *awslogs.Client
}

// NewRepository creates a new logs repository.
func NewRepository(cfg aws.Config) ports.LogsRepository {
	var options []func(*awslogs.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awslogs.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awslogs.NewFromConfig(cfg, options...)}
}

// EnsureGroup creates the log group when missing. The group usually
// already exists because the platform creates it on first invocation, but
// a metric filter cannot be attached to a group that is not there yet.
func (r *Repository) EnsureGroup(ctx context.Context, name string) error {
	_, err := r.client.CreateLogGroup(ctx, &awslogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		var exists *types.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to create log group: %w", err)
	}
	return nil
}

// PutMetricFilter creates or overwrites the count-extracting filter on a
// function's log group.
func (r *Repository) PutMetricFilter(ctx context.Context, group, filterName, pattern, metricName, namespace string) error {
	_, err := r.client.PutMetricFilter(ctx, &awslogs.PutMetricFilterInput{
		LogGroupName:  aws.String(group),
		FilterName:    aws.String(filterName),
		FilterPattern: aws.String(pattern),
		MetricTransformations: []types.MetricTransformation{
			{
				MetricName:      aws.String(metricName),
				MetricNamespace: aws.String(namespace),
				MetricValue:     aws.String("1"),
				DefaultValue:    aws.Float64(0),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put metric filter: %w", err)
	}
	return nil
}
