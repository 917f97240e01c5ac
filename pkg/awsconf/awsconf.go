// Package awsconf builds the shared AWS SDK configuration for every
// adapter from explicit credentials, ambient credentials, or a custom
// endpoint such as LocalStack.
package awsconf

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Credentials selects the target account and region. Empty key fields
// fall back to the SDK's default credential chain.
type Credentials struct {
	Region          string `yaml:"region" validate:"required"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	SessionToken    string `yaml:"sessionToken"`

	// Endpoint overrides the service endpoint, for LocalStack or a custom
	// AWS endpoint. AWS_ENDPOINT_URL works too.
	Endpoint string `yaml:"endpoint"`
}

// Load builds the SDK configuration the adapters share.
func Load(ctx context.Context, creds Credentials) (aws.Config, error) {
	configOptions := []func(*config.LoadOptions) error{
		config.WithRegion(creds.Region),
		config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 5)
		}),
	}

	if creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		configOptions = append(configOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := creds.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("AWS_ENDPOINT_URL")
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
