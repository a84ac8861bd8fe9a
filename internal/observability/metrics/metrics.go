package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const (
	FileStatusLoaded = "loaded"
	FileStatusFailed = "failed"

	ResolutionResolved   = "resolved"
	ResolutionUnresolved = "unresolved"
)

// Config configures the batch metrics registry.
type Config struct {
	ServiceName    string
	Environment    string
	PushgatewayURL string
	Job            string
}

// Metrics holds the per-run ETL counters. A run is short lived, so the registry is
// pushed to a Pushgateway once at the end instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry
	pusher   *PushgatewayPusher
	log      *zap.Logger

	files          *prometheus.CounterVec
	fileFailures   *prometheus.CounterVec
	fileDuration   *prometheus.HistogramVec
	rowsLoaded     *prometheus.CounterVec
	rowsSkipped    *prometheus.CounterVec
	songplays      *prometheus.CounterVec
	lastRunSuccess prometheus.Gauge
}

// New builds the ETL instruments on a dedicated registry.
func New(cfg Config, log *zap.Logger) *Metrics {
	if log == nil {
		log = zap.NewNop()
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "sparkify"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		log:      log.Named("metrics"),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_files_total",
			Help:        "Source files handled by the loader.",
			ConstLabels: constLabels,
		}, []string{"kind", "status"}),
		fileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_file_failures_total",
			Help:        "Source files rolled back, by failure reason.",
			ConstLabels: constLabels,
		}, []string{"kind", "reason"}),
		fileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "sparkify_etl_file_duration_seconds",
			Help:        "Time spent parsing and loading one source file.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"kind"}),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_rows_written_total",
			Help:        "Rows sent to each warehouse table, including ignored dimension duplicates.",
			ConstLabels: constLabels,
		}, []string{"table"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_rows_skipped_total",
			Help:        "Source rows dropped because of missing or invalid fields.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		songplays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_songplays_total",
			Help:        "Songplay facts by natural-key resolution outcome.",
			ConstLabels: constLabels,
		}, []string{"resolution"}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "sparkify_etl_last_run_success",
			Help:        "1 when the last batch run finished without fatal errors.",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(m.files, m.fileFailures, m.fileDuration, m.rowsLoaded, m.rowsSkipped, m.songplays, m.lastRunSuccess)

	if url := strings.TrimSpace(cfg.PushgatewayURL); url != "" {
		m.pusher = NewPushgatewayPusher(url, cfg.Job, map[string]string{
			"environment": environment,
		})
	}

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordFile counts a processed file and observes its duration.
func (m *Metrics) RecordFile(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(kind, status).Inc()
	m.fileDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordFileFailure counts a rolled back file under its failure reason.
func (m *Metrics) RecordFileFailure(kind, reason string) {
	if m == nil {
		return
	}
	m.fileFailures.WithLabelValues(kind, reason).Inc()
}

// RecordRows adds written rows for a table.
func (m *Metrics) RecordRows(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsLoaded.WithLabelValues(table).Add(float64(n))
}

// RecordSkippedRows adds rows dropped while parsing or extracting.
func (m *Metrics) RecordSkippedRows(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsSkipped.WithLabelValues(kind).Add(float64(n))
}

// RecordSongplays adds songplay facts split by resolution outcome.
func (m *Metrics) RecordSongplays(resolved, unresolved int) {
	if m == nil {
		return
	}
	if resolved > 0 {
		m.songplays.WithLabelValues(ResolutionResolved).Add(float64(resolved))
	}
	if unresolved > 0 {
		m.songplays.WithLabelValues(ResolutionUnresolved).Add(float64(unresolved))
	}
}

// RecordRunResult sets the last-run gauge.
func (m *Metrics) RecordRunResult(success bool) {
	if m == nil {
		return
	}
	if success {
		m.lastRunSuccess.Set(1)
		return
	}
	m.lastRunSuccess.Set(0)
}

// Push sends the registry to the Pushgateway when one is configured.
// Push failures are logged and never fail the batch.
func (m *Metrics) Push(ctx context.Context) {
	if m == nil || m.pusher == nil {
		return
	}
	if err := m.pusher.Push(ctx, m.registry); err != nil {
		m.log.Warn("push metrics failed", zap.Error(err))
	}
}

// PushgatewayPusher sends a registry to a Prometheus Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

// NewPushgatewayPusher returns a pusher for a Prometheus Pushgateway.
func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: strings.TrimSpace(endpoint),
		job:      strings.TrimSpace(job),
		grouping: grouping,
	}
}

// Push replaces the job's metric group on the Pushgateway.
func (p *PushgatewayPusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}
	if p.endpoint == "" {
		return errors.New("pushgateway endpoint is required")
	}
	if p.job == "" {
		return errors.New("pushgateway job is required")
	}

	pusher := push.New(p.endpoint, p.job).Gatherer(registry)
	for key, value := range p.grouping {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pusher = pusher.Grouping(key, value)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	return pusher.PushContext(ctx)
}
