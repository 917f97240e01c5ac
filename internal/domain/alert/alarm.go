package alert

// Alarm describes one threshold alarm bound to a function's error-count
// metric, notifying the service topic when it fires.
type Alarm struct {
	Name              string
	MetricName        string
	Namespace         string
	TopicARN          string
	Threshold         float64
	PeriodSeconds     int32
	EvaluationPeriods int32
}

// AlarmFor derives the alarm for a monitored function under the given
// configuration.
func (c Config) AlarmFor(remoteFunctionName, topicARN string) Alarm {
	c = c.WithDefaults()
	return Alarm{
		Name:              AlarmName(remoteFunctionName),
		MetricName:        MetricName(remoteFunctionName),
		Namespace:         c.Namespace,
		TopicARN:          topicARN,
		Threshold:         c.Threshold,
		PeriodSeconds:     c.PeriodSeconds,
		EvaluationPeriods: c.EvaluationPeriods,
	}
}
