// Package alert holds the domain model for the alerting pipeline: a
// listener function fed by a notification topic, plus one log metric
// filter and one alarm per monitored function.
package alert

import (
	_ "embed"
	"fmt"
)

//go:embed listener.mjs
var listenerSource string

// ListenerSource is the bundled source of the side-channel listener
// function. The listener is deployed like any other function, but from
// this fixed template rather than from the reflected project.
func ListenerSource() string { return listenerSource }

// ListenerName derives the fixed name of the listener function. The name
// is local to the (prefix, service) namespace, like every declared
// function name.
const listenerLocalName = "alert-listener"

func ListenerName() string { return listenerLocalName }

// TopicName derives the notification topic name for a service.
func TopicName(prefix, service string) string {
	return prefix + "-" + service + "-alerts"
}

// Config is the caller-supplied alerting configuration. A nil config, or
// one without a webhook, disables alerting for the run.
type Config struct {
	// Webhook is where the listener forwards alarm notifications.
	Webhook string `yaml:"webhook"`

	// Pattern is the log filter pattern; defaults to DefaultPattern.
	Pattern string `yaml:"pattern"`

	// Namespace is the metric namespace; defaults to DefaultNamespace.
	Namespace string `yaml:"namespace"`

	// Threshold is the alarm threshold; defaults to DefaultThreshold.
	Threshold float64 `yaml:"threshold"`

	// PeriodSeconds is the metric period; defaults to DefaultPeriod.
	PeriodSeconds int32 `yaml:"period"`

	// EvaluationPeriods defaults to DefaultEvaluationPeriods.
	EvaluationPeriods int32 `yaml:"evaluationPeriods"`
}

// Defaults applied field by field when the caller leaves them unset.
const (
	DefaultPattern           = "ERROR"
	DefaultNamespace         = "NodeDeploy"
	DefaultThreshold         = 1.0
	DefaultPeriod            = int32(60)
	DefaultEvaluationPeriods = int32(1)
)

// Enabled reports whether the configuration is complete enough to set up
// the pipeline at all.
func (c *Config) Enabled() bool {
	return c != nil && c.Webhook != ""
}

// WithDefaults returns a copy with every unset field defaulted.
func (c Config) WithDefaults() Config {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.PeriodSeconds == 0 {
		c.PeriodSeconds = DefaultPeriod
	}
	if c.EvaluationPeriods == 0 {
		c.EvaluationPeriods = DefaultEvaluationPeriods
	}
	return c
}

// MetricName derives the error-count metric name for a monitored function.
func MetricName(remoteFunctionName string) string {
	return remoteFunctionName + "-errors"
}

// AlarmName derives the alarm name for a monitored function.
func AlarmName(remoteFunctionName string) string {
	return remoteFunctionName + "-errors"
}

// LogGroupName is the platform log group of a deployed function.
func LogGroupName(remoteFunctionName string) string {
	return fmt.Sprintf("/aws/lambda/%s", remoteFunctionName)
}
