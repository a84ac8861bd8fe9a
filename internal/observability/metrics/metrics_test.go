package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordersUpdateRegistry(t *testing.T) {
	m := New(Config{ServiceName: "sparkify", Environment: "test"}, zap.NewNop())

	m.RecordFile("activity", FileStatusLoaded, 20*time.Millisecond)
	m.RecordFile("activity", FileStatusFailed, time.Millisecond)
	m.RecordFileFailure("activity", "constraint")
	m.RecordRows("fact_songplay", 2)
	m.RecordRows("dim_time", 0)
	m.RecordSkippedRows("activity", 3)
	m.RecordSongplays(1, 4)
	m.RecordRunResult(true)

	labels := map[string]string{"service": "sparkify", "env": "test"}
	assert.Equal(t, 1.0, counterValue(t, m.Registry(), "sparkify_etl_files_total", with(labels, "kind", "activity", "status", FileStatusLoaded)))
	assert.Equal(t, 1.0, counterValue(t, m.Registry(), "sparkify_etl_files_total", with(labels, "kind", "activity", "status", FileStatusFailed)))
	assert.Equal(t, 1.0, counterValue(t, m.Registry(), "sparkify_etl_file_failures_total", with(labels, "kind", "activity", "reason", "constraint")))
	assert.Equal(t, 2.0, counterValue(t, m.Registry(), "sparkify_etl_rows_written_total", with(labels, "table", "fact_songplay")))
	assert.Equal(t, 3.0, counterValue(t, m.Registry(), "sparkify_etl_rows_skipped_total", with(labels, "kind", "activity")))
	assert.Equal(t, 1.0, counterValue(t, m.Registry(), "sparkify_etl_songplays_total", with(labels, "resolution", ResolutionResolved)))
	assert.Equal(t, 4.0, counterValue(t, m.Registry(), "sparkify_etl_songplays_total", with(labels, "resolution", ResolutionUnresolved)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordFile("catalog", FileStatusLoaded, time.Second)
	m.RecordFileFailure("catalog", "parse")
	m.RecordRows("dim_song", 1)
	m.RecordSongplays(1, 1)
	m.RecordRunResult(false)
	m.Push(context.Background())
	assert.Nil(t, m.Registry())
}

func TestPushgatewayPusherSendsJobGroup(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New(Config{Environment: "test", PushgatewayURL: srv.URL, Job: "sparkify_etl"}, zap.NewNop())
	m.RecordRunResult(true)

	require.NoError(t, m.pusher.Push(context.Background(), m.Registry()))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/sparkify_etl/environment/test", gotPath)
}

func TestPushgatewayPusherRequiresJob(t *testing.T) {
	p := NewPushgatewayPusher("http://localhost:9091", " ", nil)
	err := p.Push(context.Background(), prometheus.NewRegistry())
	require.Error(t, err)
}

func with(base map[string]string, kv ...string) map[string]string {
	out := make(map[string]string, len(base)+len(kv)/2)
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
