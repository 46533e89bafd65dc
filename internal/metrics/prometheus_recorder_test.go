package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg, "")
	pr.ObserveStageDuration("extract", 150*time.Millisecond)
	pr.ObserveRunDuration(5 * time.Second)
	pr.IncStageResult("extract", ResultSuccess)
	pr.IncRunOutcome(OutcomeWarning)
	pr.AddFiles("en", FileWritten, 3)
	pr.AddFiles("en", FileFailed, 0)
	pr.AddSegments("en", 10, 2)
	pr.ObserveTranslateDuration("en", time.Second)
	pr.SetCacheHits(4, 6)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.InDelta(t, 3, value(mfs, "docmigrate_files_total", "written"), 0)
	assert.InDelta(t, 10, value(mfs, "docmigrate_segments_total", ""), 0)
	assert.InDelta(t, 2, value(mfs, "docmigrate_segment_failures_total", ""), 0)
	assert.InDelta(t, 1, value(mfs, "docmigrate_run_outcomes_total", "warning"), 0)
	assert.InDelta(t, 4, value(mfs, "docmigrate_translation_cache_hits", ""), 0)
	assert.Same(t, reg, pr.Registry())
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.AddFiles("en", FileWritten, 1)
		pr.IncRunOutcome(OutcomeSuccess)
		pr.SetCacheHits(1, 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil, "test")
	pr.AddFiles("ja", FileSkipped, 2)

	path := filepath.Join(t.TempDir(), "out", "docmigrate.prom")
	require.NoError(t, WriteTextfile(path, pr.Registry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `test_files_total{lang="ja",result="skipped"} 2`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil, "")
	pr.IncRunOutcome(OutcomeSuccess)

	srv := httptest.NewServer(HTTPHandler(pr.Registry()))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docmigrate_run_outcomes_total")
}

// value returns the counter or gauge value of the first series of name that
// carries a label with the given value (any series when label is empty).
func value(mfs []*dto.MetricFamily, name, label string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && !hasLabelValue(m, label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return -1
}

func hasLabelValue(m *dto.Metric, v string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetValue() == v {
			return true
		}
	}
	return false
}
