// Package metrics defines the sink interfaces the scheduler reports to.
// Recorders beyond MetricsSink are optional and discovered by type
// assertion. Several configured sinks are combined into a MultiSink.
package metrics
