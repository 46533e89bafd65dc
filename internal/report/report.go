// Package report captures what a run did and persists it next to the work files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SchemaVersion is bumped when the JSON form changes incompatibly.
const SchemaVersion = 1

// File names written by Persist.
const (
	JSONFile = "run-report.json"
	TextFile = "run-report.txt"
)

// Outcome is the final result state of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// IssueCode enumerates machine-parseable issue identifiers. Codes are only ever appended.
type IssueCode string

const (
	IssueFetchFailure       IssueCode = "FETCH_FAILURE"
	IssueStructure          IssueCode = "STRUCTURE_ERROR"
	IssueWriteFailure       IssueCode = "WRITE_FAILURE"
	IssueTranslationFailure IssueCode = "TRANSLATION_FAILURE"
	IssueOutlineMismatch    IssueCode = "OUTLINE_MISMATCH"
	IssueLabelTranslation   IssueCode = "LABEL_TRANSLATION"
	IssueCacheFailure       IssueCode = "CACHE_FAILURE"
	IssuePublishFailure     IssueCode = "PUBLISH_FAILURE"
	IssueNotifyFailure      IssueCode = "NOTIFY_FAILURE"
	IssueCanceled           IssueCode = "RUN_CANCELED"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a structured entry describing a discrete problem.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Stage    string        `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	Language string        `json:"language,omitempty"`
	File     string        `json:"file,omitempty"`
}

// LanguageStats counts what happened to the pages of one locale.
type LanguageStats struct {
	FilesTotal        int `json:"files_total"`
	FilesWritten      int `json:"files_written"`
	FilesSkipped      int `json:"files_skipped"`
	FilesFailed       int `json:"files_failed"`
	WriteErrors       int `json:"write_errors"`
	Segments          int `json:"segments"`
	SegmentFailures   int `json:"segment_failures"`
	OutlineMismatches int `json:"outline_mismatches"`
}

func (s *LanguageStats) add(o LanguageStats) {
	s.FilesTotal += o.FilesTotal
	s.FilesWritten += o.FilesWritten
	s.FilesSkipped += o.FilesSkipped
	s.FilesFailed += o.FilesFailed
	s.WriteErrors += o.WriteErrors
	s.Segments += o.Segments
	s.SegmentFailures += o.SegmentFailures
	s.OutlineMismatches += o.OutlineMismatches
}

// Report captures the counters, issues and timings of a run.
type Report struct {
	RunID          string
	DocumentID     string
	Start          time.Time
	End            time.Time
	Sections       int
	Entries        int
	Languages      map[string]*LanguageStats
	StageDurations map[string]time.Duration
	Errors         []error
	Warnings       []error
	Issues         []Issue
	Outcome        Outcome
	CacheHits      int64
	CacheMisses    int64
	Commit         string
	now            func() time.Time
}

// New starts a report for a run.
func New(runID, documentID string) *Report {
	r := &Report{
		RunID:          runID,
		DocumentID:     documentID,
		Languages:      map[string]*LanguageStats{},
		StageDurations: map[string]time.Duration{},
		now:            time.Now,
	}
	r.Start = r.now()
	return r
}

// Lang returns the mutable counters of a locale, creating them on first use.
func (r *Report) Lang(code string) *LanguageStats {
	s, ok := r.Languages[code]
	if !ok {
		s = &LanguageStats{}
		r.Languages[code] = s
	}
	return s
}

// Totals sums the counters of every locale.
func (r *Report) Totals() LanguageStats {
	var t LanguageStats
	for _, s := range r.Languages {
		t.add(*s)
	}
	return t
}

// AddIssue records a structured issue and mirrors err into Errors or Warnings by severity.
func (r *Report) AddIssue(issue Issue, err error) {
	r.Issues = append(r.Issues, issue)
	if err == nil {
		return
	}
	switch issue.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, err)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, err)
	}
}

// ObserveStage records the duration of a stage.
func (r *Report) ObserveStage(stage string, d time.Duration) {
	r.StageDurations[stage] += d
}

// Finish stamps the end time and derives the outcome.
func (r *Report) Finish() {
	r.End = r.now()
	r.Outcome = r.deriveOutcome()
}

func (r *Report) deriveOutcome() Outcome {
	hasError, hasWarning := len(r.Errors) > 0, len(r.Warnings) > 0
	for _, is := range r.Issues {
		switch {
		case is.Code == IssueCanceled:
			return OutcomeCanceled
		case is.Severity == SeverityError:
			hasError = true
		case is.Severity == SeverityWarning:
			hasWarning = true
		}
	}
	if hasError {
		return OutcomeFailed
	}
	t := r.Totals()
	if hasWarning || t.FilesFailed > 0 || t.WriteErrors > 0 || t.SegmentFailures > 0 {
		return OutcomeWarning
	}
	return OutcomeSuccess
}

// Duration returns the run duration, or the time elapsed so far.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return r.now().Sub(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	t := r.Totals()
	return fmt.Sprintf("run=%s sections=%d entries=%d written=%d skipped=%d failed=%d write_errors=%d segment_failures=%d outline_mismatches=%d duration=%s outcome=%s",
		r.RunID, r.Sections, r.Entries, t.FilesWritten, t.FilesSkipped, t.FilesFailed, t.WriteErrors,
		t.SegmentFailures, t.OutlineMismatches, r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Text renders the summary followed by one line per locale and one per issue.
func (r *Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	b.WriteByte('\n')
	codes := make([]string, 0, len(r.Languages))
	for code := range r.Languages {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		s := r.Languages[code]
		fmt.Fprintf(&b, "  %s: total=%d written=%d skipped=%d failed=%d write_errors=%d segments=%d segment_failures=%d outline_mismatches=%d\n",
			code, s.FilesTotal, s.FilesWritten, s.FilesSkipped, s.FilesFailed, s.WriteErrors, s.Segments, s.SegmentFailures, s.OutlineMismatches)
	}
	for _, is := range r.Issues {
		fmt.Fprintf(&b, "  [%s] %s %s", is.Severity, is.Code, is.Message)
		if is.Language != "" {
			fmt.Fprintf(&b, " lang=%s", is.Language)
		}
		if is.File != "" {
			fmt.Fprintf(&b, " file=%s", is.File)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Serializable mirrors Report with string errors and millisecond durations for JSON output.
type Serializable struct {
	SchemaVersion    int                       `json:"schema_version"`
	RunID            string                    `json:"run_id"`
	DocumentID       string                    `json:"document_id,omitempty"`
	Start            time.Time                 `json:"start"`
	End              time.Time                 `json:"end"`
	DurationMS       int64                     `json:"duration_ms"`
	Sections         int                       `json:"sections"`
	Entries          int                       `json:"entries"`
	Languages        map[string]LanguageStats  `json:"languages"`
	Totals           LanguageStats             `json:"totals"`
	StageDurationsMS map[string]int64          `json:"stage_durations_ms"`
	Errors           []string                  `json:"errors"`
	Warnings         []string                  `json:"warnings"`
	Issues           []Issue                   `json:"issues"`
	Outcome          Outcome                   `json:"outcome"`
	CacheHits        int64                     `json:"cache_hits"`
	CacheMisses      int64                     `json:"cache_misses"`
	Commit           string                    `json:"commit,omitempty"`
}

// Serializable returns the JSON-friendly form of the report.
func (r *Report) Serializable() Serializable {
	s := Serializable{
		SchemaVersion:    SchemaVersion,
		RunID:            r.RunID,
		DocumentID:       r.DocumentID,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Sections:         r.Sections,
		Entries:          r.Entries,
		Languages:        make(map[string]LanguageStats, len(r.Languages)),
		Totals:           r.Totals(),
		StageDurationsMS: make(map[string]int64, len(r.StageDurations)),
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		Issues:           r.Issues,
		Outcome:          r.Outcome,
		CacheHits:        r.CacheHits,
		CacheMisses:      r.CacheMisses,
		Commit:           r.Commit,
	}
	if s.Issues == nil {
		s.Issues = []Issue{}
	}
	for code, l := range r.Languages {
		s.Languages[code] = *l
	}
	for stage, d := range r.StageDurations {
		s.StageDurationsMS[stage] = d.Milliseconds()
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// JSON returns the indented JSON form.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r.Serializable(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report json: %w", err)
	}
	return data, nil
}

// Persist writes run-report.json and run-report.txt into dir, each through a
// temporary file and rename. An unfinished report is finished first.
func (r *Report) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	data, err := r.JSON()
	if err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(dir, JSONFile), data); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, TextFile), []byte(r.Text()))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
