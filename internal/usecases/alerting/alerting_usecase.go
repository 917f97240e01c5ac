// Package alerting provisions the notification pipeline: a side-channel
// listener function fed by a topic, plus a log metric filter and an alarm
// per monitored function. Alerting is best-effort; a failure here must
// never fail the deployment, which the orchestrator enforces.
package alerting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spiritworld-dk/node-deploy/internal/domain/alert"
	"github.com/spiritworld-dk/node-deploy/internal/domain/function"
	"github.com/spiritworld-dk/node-deploy/internal/domain/trigger"
	"github.com/spiritworld-dk/node-deploy/internal/ports"
	triggeruc "github.com/spiritworld-dk/node-deploy/internal/usecases/trigger"
)

// DefaultSettleDelay is how long to wait after deploying the listener
// before wiring permissions to it; permission calls can race function
// registration on the platform side.
const DefaultSettleDelay = 5 * time.Second

// UseCase sets up the alerting pipeline for a service.
type UseCase struct {
	Functions ports.FunctionRepository
	Topics    ports.TopicRepository
	Logs      ports.LogsRepository
	Alarms    ports.AlarmRepository
	Triggers  *triggeruc.UseCase
	Log       *zap.Logger

	// SettleDelay overrides DefaultSettleDelay when positive; tests set it.
	SettleDelay time.Duration
}

// SetupInput is everything one alerting setup consumes.
type SetupInput struct {
	Prefix  string
	Service string
	Config  *alert.Config
	RoleARN string

	// Monitored is the service's deployed function set, excluding the
	// listener itself.
	Monitored []function.Remote
}

// Setup provisions the whole pipeline. An incomplete configuration is a
// no-op with a warning, never an error.
func (uc *UseCase) Setup(ctx context.Context, in SetupInput) error {
	if !in.Config.Enabled() {
		uc.Log.Warn("Alerting configuration missing or incomplete, skipping alerting setup.")
		return nil
	}
	cfg := in.Config.WithDefaults()

	listenerARN, err := uc.deployListener(ctx, in, cfg)
	if err != nil {
		return err
	}

	topicARN, err := uc.Topics.Ensure(ctx, alert.TopicName(in.Prefix, in.Service))
	if err != nil {
		return err
	}

	listenerName := function.RemoteName(in.Prefix, in.Service, alert.ListenerName())
	if err := uc.Triggers.Reconcile(ctx, listenerName, trigger.TopicInvoke(topicARN)); err != nil {
		return err
	}

	subscribed, err := uc.Topics.HasSubscription(ctx, topicARN, listenerARN)
	if err != nil {
		return err
	}
	if !subscribed {
		uc.Log.Info("Subscribing listener to topic.", zap.String("topic", topicARN))
		if err := uc.Topics.Subscribe(ctx, topicARN, "lambda", listenerARN); err != nil {
			return err
		}
	}

	for _, monitored := range in.Monitored {
		remoteName := function.RemoteName(in.Prefix, in.Service, monitored.Name)
		if err := uc.monitor(ctx, cfg, remoteName, topicARN); err != nil {
			return err
		}
	}
	return nil
}

// deployListener creates or updates the fixed-name listener function from
// the bundled template and returns its identifier. After a fresh creation
// it waits for the platform to register the function.
func (uc *UseCase) deployListener(ctx context.Context, in SetupInput, cfg alert.Config) (string, error) {
	archive, hash, err := function.Package(alert.ListenerSource())
	if err != nil {
		return "", err
	}

	spec := function.Spec{
		RemoteName:   function.RemoteName(in.Prefix, in.Service, alert.ListenerName()),
		Runtime:      "nodejs20.x",
		Architecture: function.ArchARM64,
		RoleARN:      in.RoleARN,
		MemorySize:   128,
		Timeout:      function.DefaultTimeout,
		Environment:  map[string]string{"WEBHOOK_URL": cfg.Webhook},
		Archive:      archive,
	}

	current, err := uc.findListener(ctx, in.Prefix, in.Service)
	if err != nil {
		return "", err
	}

	if current == nil {
		uc.Log.Info("Creating alert listener.", zap.String("function", spec.RemoteName))
		arn, err := uc.Functions.Create(ctx, spec)
		if err != nil {
			return "", err
		}
		uc.settle(ctx)
		return arn, nil
	}

	if hash != current.CodeSHA256 {
		uc.Log.Info("Updating alert listener code.", zap.String("function", spec.RemoteName))
		if err := uc.Functions.UpdateCode(ctx, spec.RemoteName, archive); err != nil {
			return "", err
		}
	}
	if !mapsEqual(spec.Environment, current.Environment) {
		uc.Log.Info("Updating alert listener configuration.", zap.String("function", spec.RemoteName))
		if err := uc.Functions.UpdateConfiguration(ctx, spec); err != nil {
			return "", err
		}
	}
	return current.ARN, nil
}

// monitor ensures the log group, metric filter and alarm for one function.
func (uc *UseCase) monitor(ctx context.Context, cfg alert.Config, remoteName, topicARN string) error {
	group := alert.LogGroupName(remoteName)
	if err := uc.Logs.EnsureGroup(ctx, group); err != nil {
		return err
	}

	metric := alert.MetricName(remoteName)
	if err := uc.Logs.PutMetricFilter(ctx, group, metric, cfg.Pattern, metric, cfg.Namespace); err != nil {
		return err
	}

	if err := uc.Alarms.Put(ctx, cfg.AlarmFor(remoteName, topicARN)); err != nil {
		return fmt.Errorf("failed to put alarm for %q: %w", remoteName, err)
	}
	return nil
}

func (uc *UseCase) findListener(ctx context.Context, prefix, service string) (*function.Remote, error) {
	remotes, err := uc.Functions.List(ctx, prefix, service)
	if err != nil {
		return nil, err
	}
	for _, remote := range remotes {
		if remote.Name == alert.ListenerName() {
			remote := remote
			return &remote, nil
		}
	}
	return nil, nil
}

func (uc *UseCase) settle(ctx context.Context) {
	delay := uc.SettleDelay
	if delay == 0 {
		delay = DefaultSettleDelay
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
