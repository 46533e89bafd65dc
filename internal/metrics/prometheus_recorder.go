package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "docmigrate"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry          *prom.Registry
	stageDuration     *prom.HistogramVec
	runDuration       prom.Histogram
	stageResults      *prom.CounterVec
	runOutcome        *prom.CounterVec
	files             *prom.CounterVec
	segments          *prom.CounterVec
	segmentFailures   *prom.CounterVec
	translateDuration *prom.HistogramVec
	cacheHits         prom.Gauge
	cacheMisses       prom.Gauge
	lastRun           prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry; an empty namespace uses DefaultNamespace.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual run stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total run duration",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Runs by final status",
	}, []string{"outcome"})
	pr.files = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Generated or translated pages by locale and result",
	}, []string{"lang", "result"})
	pr.segments = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "segments_total",
		Help:      "Text segments sent for translation",
	}, []string{"lang"})
	pr.segmentFailures = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "segment_failures_total",
		Help:      "Text segments that kept their original text after retries",
	}, []string{"lang"})
	pr.translateDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "translate_file_duration_seconds",
		Help:      "Duration of translating one page",
		Buckets:   prom.DefBuckets,
	}, []string{"lang"})
	pr.cacheHits = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "translation_cache_hits",
		Help:      "Translation memory hits in the last run",
	})
	pr.cacheMisses = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "translation_cache_misses",
		Help:      "Translation memory misses in the last run",
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
		pr.files, pr.segments, pr.segmentFailures, pr.translateDuration,
		pr.cacheHits, pr.cacheMisses, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) AddFiles(lang string, result FileResult, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.files.WithLabelValues(lang, string(result)).Add(float64(n))
}

func (p *PrometheusRecorder) AddSegments(lang string, total, failed int) {
	if p == nil {
		return
	}
	if total > 0 {
		p.segments.WithLabelValues(lang).Add(float64(total))
	}
	if failed > 0 {
		p.segmentFailures.WithLabelValues(lang).Add(float64(failed))
	}
}

func (p *PrometheusRecorder) ObserveTranslateDuration(lang string, d time.Duration) {
	if p == nil {
		return
	}
	p.translateDuration.WithLabelValues(lang).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetCacheHits(hits, misses int64) {
	if p == nil {
		return
	}
	p.cacheHits.Set(float64(hits))
	p.cacheMisses.Set(float64(misses))
}
