// Package cloudwatch implements the alarm repository using the AWS SDK.
package cloudwatch

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
)

// Repository implements ports.AlarmRepository using the AWS SDK.
type Repository struct {
	client *awscw.Client
}

// NewRepository creates a new alarm repository.
func NewRepository(cfg aws.Config) ports.AlarmRepository {
	var options []func(*awscw.Options)

	// Support LocalStack endpoint
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		options = append(options, func(o *awscw.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Repository{client: awscw.NewFromConfig(cfg, options...)}
}

// Put creates or overwrites the threshold alarm. PutMetricAlarm is an
// upsert on the platform side.
func (r *Repository) Put(ctx context.Context, alarm alert.Alarm) error {
	_, err := r.client.PutMetricAlarm(ctx, &awscw.PutMetricAlarmInput{
		AlarmName:          aws.String(alarm.Name),
		MetricName:         aws.String(alarm.MetricName),
		Namespace:          aws.String(alarm.Namespace),
		Statistic:          types.StatisticSum,
		ComparisonOperator: types.ComparisonOperatorGreaterThanOrEqualToThreshold,
		Threshold:          aws.Float64(alarm.Threshold),
		Period:             aws.Int32(alarm.PeriodSeconds),
		EvaluationPeriods:  aws.Int32(alarm.EvaluationPeriods),
		TreatMissingData:   aws.String("notBreaching"),
		AlarmActions:       []string{alarm.TopicARN},
	})
	if err != nil {
		return fmt.Errorf("failed to put metric alarm: %w", err)
	}
	return nil
}
