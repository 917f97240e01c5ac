// Package sns implements the notification topic repository using the AWS SDK.
package sns

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.TopicRepository using the AWS SDK.
type Repository struct {
	client *awssns.Client
}

// NewRepository creates a new topic repository.
func NewRepository(cfg aws.Config) ports.TopicRepository {
	var options []func(*awssns.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awssns.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awssns.NewFromConfig(cfg, options...)}
}

// Ensure creates the topic when missing and returns its ARN. CreateTopic
// is idempotent on the platform side.
func (r *Repository) Ensure(ctx context.Context, name string) (string, error) {
	output, err := r.client.CreateTopic(ctx, &awssns.CreateTopicInput{
		Name: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create topic: %w", err)
	}
	return aws.ToString(output.TopicArn), nil
}

// HasSubscription reports whether the endpoint is already subscribed to
// the topic.
func (r *Repository) HasSubscription(ctx context.Context, topicARN, endpoint string) (bool, error) {
	var token *string
	for {
		output, err := r.client.ListSubscriptionsByTopic(ctx, &awssns.ListSubscriptionsByTopicInput{
			TopicArn:  aws.String(topicARN),
			NextToken: token,
		})
		if err != nil {
			return false, fmt.Errorf("failed to list subscriptions: %w", err)
		}

		for _, sub := range output.Subscriptions {
			if aws.ToString(sub.Endpoint) == endpoint {
				return true, nil
			}
		}

		if output.NextToken == nil {
			return false, nil
		}
		token = output.NextToken
	}
}

// Subscribe adds an endpoint subscription to the topic.
func (r *Repository) Subscribe(ctx context.Context, topicARN, protocol, endpoint string) error {
	_, err := r.client.Subscribe(ctx, &awssns.SubscribeInput{
		TopicArn: aws.String(topicARN),
		Protocol: aws.String(protocol),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}
