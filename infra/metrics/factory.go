package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/skyplan/core/factory"
	coremetrics "github.com/kilianp07/skyplan/core/metrics"
)

// init registers the "prometheus" and "influx" sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("prometheus", newPromFromConf)
	_ = coremetrics.RegisterMetricsSink("influx", newInfluxFromConf)
}

// newPromFromConf accepts {"private": true} to register on a fresh registry,
// which keeps several sinks apart in one process.
func newPromFromConf(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c struct {
		Private bool `json:"private"`
	}
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if c.Private {
		return NewPromSinkWithRegistry(prometheus.NewRegistry())
	}
	return NewPromSink()
}

func newInfluxFromConf(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return OpenInfluxSink(c)
}
