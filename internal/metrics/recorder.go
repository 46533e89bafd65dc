package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcome is the final status of a run.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeWarning  RunOutcome = "warning"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// FileResult is what happened to one generated or translated page.
type FileResult string

const (
	FileWritten FileResult = "written"
	FileSkipped FileResult = "skipped"
	FileFailed  FileResult = "failed"
)

// Recorder defines observability hooks for runs. Locale labels use the
// language code; the source locale uses the source language code.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome RunOutcome)
	AddFiles(lang string, result FileResult, n int)
	AddSegments(lang string, total, failed int)
	ObserveTranslateDuration(lang string, d time.Duration)
	SetCacheHits(hits, misses int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) ObserveRunDuration(time.Duration)               {}
func (NoopRecorder) IncStageResult(string, ResultLabel)             {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                       {}
func (NoopRecorder) AddFiles(string, FileResult, int)               {}
func (NoopRecorder) AddSegments(string, int, int)                   {}
func (NoopRecorder) ObserveTranslateDuration(string, time.Duration) {}
func (NoopRecorder) SetCacheHits(int64, int64)                      {}
