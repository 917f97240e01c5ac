package ports

import (
	"context"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
)

// TopicRepository wraps the notification topic and its subscriptions.
type TopicRepository interface {
	// Ensure creates the topic when missing and returns its ARN. Topic
	// creation is idempotent on the platform side.
	Ensure(ctx context.Context, name string) (string, error)

	// HasSubscription reports whether the endpoint is already subscribed.
	HasSubscription(ctx context.Context, topicARN, endpoint string) (bool, error)

	Subscribe(ctx context.Context, topicARN, protocol, endpoint string) error
}

// LogsRepository wraps log groups and log-based metric filters.
type LogsRepository interface {
	// EnsureGroup creates the log group when missing.
	EnsureGroup(ctx context.Context, name string) error

	PutMetricFilter(ctx context.Context, group, filterName, pattern, metricName, namespace string) error
}

// AlarmRepository wraps threshold alarms.
type AlarmRepository interface {
	Put(ctx context.Context, alarm alert.Alarm) error
}
