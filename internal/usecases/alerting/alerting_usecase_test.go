package alerting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
	triggeruc "github.com/spiritworld-dk/node-deploy/internal/usecases/trigger"
)

type fakeFunctions struct {
	remotes    []function.Remote
	created    []function.Spec
	codePushes []string
	policies   map[string][]trigger.Statement
	added      int
}

func (f *fakeFunctions) List(ctx context.Context, prefix, service string) ([]function.Remote, error) {
	return f.remotes, nil
}

func (f *fakeFunctions) Create(ctx context.Context, spec function.Spec) (string, error) {
	f.created = append(f.created, spec)
	return "arn:aws:lambda:eu-west-1:123456789012:function:" + spec.RemoteName, nil
}

func (f *fakeFunctions) UpdateConfiguration(ctx context.Context, spec function.Spec) error {
	return nil
}

func (f *fakeFunctions) UpdateCode(ctx context.Context, remoteName string, archive []byte) error {
	f.codePushes = append(f.codePushes, remoteName)
	return nil
}

func (f *fakeFunctions) Delete(ctx context.Context, remoteName string) error { return nil }

func (f *fakeFunctions) Policy(ctx context.Context, remoteName string) ([]trigger.Statement, error) {
	return f.policies[remoteName], nil
}

func (f *fakeFunctions) AddPermission(ctx context.Context, remoteName, id string, st trigger.Statement) error {
	st.ID = id
	if f.policies == nil {
		f.policies = map[string][]trigger.Statement{}
	}
	f.policies[remoteName] = append(f.policies[remoteName], st)
	f.added++
	return nil
}

func (f *fakeFunctions) RemovePermission(ctx context.Context, remoteName, id string) error {
	return nil
}

type fakeTopics struct {
	subscriptions map[string]bool
	subscribed    int
}

func (f *fakeTopics) Ensure(ctx context.Context, name string) (string, error) {
	return "arn:aws:sns:eu-west-1:123456789012:" + name, nil
}

func (f *fakeTopics) HasSubscription(ctx context.Context, topicARN, endpoint string) (bool, error) {
	return f.subscriptions[topicARN+"|"+endpoint], nil
}

func (f *fakeTopics) Subscribe(ctx context.Context, topicARN, protocol, endpoint string) error {
	if protocol != "lambda" {
		return fmt.Errorf("unexpected protocol %q", protocol)
	}
	if f.subscriptions == nil {
		f.subscriptions = map[string]bool{}
	}
	f.subscriptions[topicARN+"|"+endpoint] = true
	f.subscribed++
	return nil
}

type fakeLogs struct {
	groups  []string
	filters []string
}

func (f *fakeLogs) EnsureGroup(ctx context.Context, name string) error {
	f.groups = append(f.groups, name)
	return nil
}

func (f *fakeLogs) PutMetricFilter(ctx context.Context, group, filterName, pattern, metricName, namespace string) error {
	f.filters = append(f.filters, group+"|"+metricName+"|"+pattern+"|"+namespace)
	return nil
}

type fakeAlarms struct {
	alarms []alert.Alarm
}

func (f *fakeAlarms) Put(ctx context.Context, alarm alert.Alarm) error {
	f.alarms = append(f.alarms, alarm)
	return nil
}

func newUseCase(functions *fakeFunctions, topics *fakeTopics, logs *fakeLogs, alarms *fakeAlarms) *UseCase {
	log := zap.NewNop()
	return &UseCase{
		Functions:   functions,
		Topics:      topics,
		Logs:        logs,
		Alarms:      alarms,
		Triggers:    &triggeruc.UseCase{Functions: functions, Log: log},
		Log:         log,
		SettleDelay: time.Millisecond,
	}
}

func setupInput(cfg *alert.Config) SetupInput {
	return SetupInput{
		Prefix:  "prod",
		Service: "shop",
		Config:  cfg,
		RoleARN: "arn:aws:iam::123456789012:role/prod-shop",
		Monitored: []function.Remote{
			{Name: "get-user", ARN: "arn:aws:lambda:eu-west-1:123456789012:function:prod-shop-get-user"},
		},
	}
}

func TestSetupSkipsWhenDisabled(t *testing.T) {
	functions := &fakeFunctions{}
	topics := &fakeTopics{}
	uc := newUseCase(functions, topics, &fakeLogs{}, &fakeAlarms{})

	require.NoError(t, uc.Setup(context.Background(), setupInput(nil)))
	require.NoError(t, uc.Setup(context.Background(), setupInput(&alert.Config{})))

	assert.Empty(t, functions.created)
	assert.Zero(t, topics.subscribed)
}

func TestSetupProvisionsFullPipeline(t *testing.T) {
	functions := &fakeFunctions{}
	topics := &fakeTopics{}
	logs := &fakeLogs{}
	alarms := &fakeAlarms{}
	uc := newUseCase(functions, topics, logs, alarms)

	cfg := &alert.Config{Webhook: "https://hooks.example.com/x"}
	require.NoError(t, uc.Setup(context.Background(), setupInput(cfg)))

	// Listener deployed with the webhook in its environment.
	require.Len(t, functions.created, 1)
	listener := functions.created[0]
	assert.Equal(t, "prod-shop-alert-listener", listener.RemoteName)
	assert.Equal(t, "https://hooks.example.com/x", listener.Environment["WEBHOOK_URL"])

	// Topic subscription and topic-invoke permission on the listener.
	assert.Equal(t, 1, topics.subscribed)
	assert.Equal(t, 1, functions.added)
	statements := functions.policies["prod-shop-alert-listener"]
	require.Len(t, statements, 1)
	assert.Equal(t, trigger.TopicPrincipal, statements[0].Principal)

	// Log group, metric filter and alarm per monitored function.
	assert.Equal(t, []string{"/aws/lambda/prod-shop-get-user"}, logs.groups)
	require.Len(t, logs.filters, 1)
	assert.Contains(t, logs.filters[0], "prod-shop-get-user-errors")
	assert.Contains(t, logs.filters[0], alert.DefaultPattern)

	require.Len(t, alarms.alarms, 1)
	assert.Equal(t, "prod-shop-get-user-errors", alarms.alarms[0].Name)
	assert.Contains(t, alarms.alarms[0].TopicARN, "prod-shop-alerts")
}

func TestSetupIsIdempotent(t *testing.T) {
	functions := &fakeFunctions{}
	topics := &fakeTopics{}
	uc := newUseCase(functions, topics, &fakeLogs{}, &fakeAlarms{})

	cfg := &alert.Config{Webhook: "https://hooks.example.com/x"}
	require.NoError(t, uc.Setup(context.Background(), setupInput(cfg)))

	// Second run sees the deployed listener and existing subscription.
	_, hash, err := function.Package(alert.ListenerSource())
	require.NoError(t, err)
	functions.remotes = []function.Remote{{
		ARN:         "arn:aws:lambda:eu-west-1:123456789012:function:prod-shop-alert-listener",
		Name:        alert.ListenerName(),
		CodeSHA256:  hash,
		Environment: map[string]string{"WEBHOOK_URL": cfg.Webhook},
	}}
	functions.created = nil

	require.NoError(t, uc.Setup(context.Background(), setupInput(cfg)))

	assert.Empty(t, functions.created)
	assert.Empty(t, functions.codePushes)
	assert.Equal(t, 1, topics.subscribed, "no duplicate subscription")
}

func TestSetupUpdatesListenerWebhook(t *testing.T) {
	_, hash, err := function.Package(alert.ListenerSource())
	require.NoError(t, err)

	functions := &fakeFunctions{remotes: []function.Remote{{
		ARN:         "arn:aws:lambda:eu-west-1:123456789012:function:prod-shop-alert-listener",
		Name:        alert.ListenerName(),
		CodeSHA256:  hash,
		Environment: map[string]string{"WEBHOOK_URL": "https://hooks.example.com/old"},
	}}}
	topics := &fakeTopics{}
	uc := newUseCase(functions, topics, &fakeLogs{}, &fakeAlarms{})

	configured := 0
	uc.Functions = &configRecorder{fakeFunctions: functions, configured: &configured}

	cfg := &alert.Config{Webhook: "https://hooks.example.com/new"}
	require.NoError(t, uc.Setup(context.Background(), setupInput(cfg)))

	assert.Empty(t, functions.created)
	assert.Equal(t, 1, configured)
}

type configRecorder struct {
	*fakeFunctions
	configured *int
}

func (c *configRecorder) UpdateConfiguration(ctx context.Context, spec function.Spec) error {
	*c.configured++
	return nil
}
