// Package metrics builds the tally root scope statesync reports through.
package metrics

import (
	"io"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/uber-go/tally/v4"
	"github.com/uber-go/tally/v4/prometheus"
)

const DefaultReportInterval = time.Second

type Options struct {
	Prefix         string
	ReportInterval time.Duration
	Tags           map[string]string
}

// Metrics is a root scope backed by a private Prometheus registry.
type Metrics struct {
	Scope   tally.Scope
	Handler http.Handler
	closer  io.Closer
}

func New(options Options) *Metrics {
	if options.ReportInterval <= 0 {
		options.ReportInterval = DefaultReportInterval
	}
	registry := prom.NewRegistry()
	reporter := prometheus.NewReporter(prometheus.Options{
		Registerer:               registry,
		Gatherer:                 registry,
		DefaultTimerType:         prometheus.HistogramTimerType,
		DefaultHistogramBuckets:  prometheus.DefaultHistogramBuckets(),
		DefaultSummaryObjectives: prometheus.DefaultSummaryObjectives(),
	})
	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Tags:           options.Tags,
		Prefix:         options.Prefix,
		CachedReporter: reporter,
		Separator:      prometheus.DefaultSeparator,
	}, options.ReportInterval)
	return &Metrics{
		Scope:   scope,
		Handler: reporter.HTTPHandler(),
		closer:  closer,
	}
}

// Close flushes the pending values and stops reporting.
func (m *Metrics) Close() error {
	return m.closer.Close()
}
