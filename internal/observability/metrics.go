package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics tracks conversion pipeline metrics. Registered once per
// process; preview mode exposes them on /metrics.
type BuildMetrics struct {
	ConversionsTotal   prometheus.Counter
	ConversionFailures prometheus.Counter
	PagesConverted     prometheus.Counter
	RebuildsTotal      prometheus.Counter
	RebuildsCancelled  prometheus.Counter
	ConversionSeconds  prometheus.Histogram
}

// NewBuildMetrics creates and registers build metrics on the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid global registration conflicts.
func NewBuildMetrics(reg prometheus.Registerer) *BuildMetrics {
	m := &BuildMetrics{
		ConversionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docarchive_conversions_total",
			Help: "Total conversion runs started.",
		}),
		ConversionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docarchive_conversion_failures_total",
			Help: "Conversion runs that reported an error outcome.",
		}),
		PagesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docarchive_pages_converted_total",
			Help: "Render nodes produced across all conversion runs.",
		}),
		RebuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docarchive_preview_rebuilds_total",
			Help: "Preview rebuilds triggered by filesystem changes.",
		}),
		RebuildsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docarchive_preview_rebuilds_cancelled_total",
			Help: "In-flight preview conversions cancelled by a newer change.",
		}),
		ConversionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docarchive_conversion_duration_seconds",
			Help:    "Wall-clock duration of full conversion runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ConversionsTotal,
			m.ConversionFailures,
			m.PagesConverted,
			m.RebuildsTotal,
			m.RebuildsCancelled,
			m.ConversionSeconds,
		)
	}
	return m
}
