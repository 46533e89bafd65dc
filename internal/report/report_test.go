package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedReport() *Report {
	r := New("run-1", "doc1")
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.Start = start
	r.now = func() time.Time { return start.Add(90 * time.Second) }
	return r
}

func TestOutcomeDerivation(t *testing.T) {
	r := fixedReport()
	r.Lang("zh-Hans").FilesWritten = 3
	r.Finish()
	assert.Equal(t, OutcomeSuccess, r.Outcome)

	r = fixedReport()
	r.Lang("en").FilesFailed = 1
	r.Finish()
	assert.Equal(t, OutcomeWarning, r.Outcome)

	r = fixedReport()
	r.AddIssue(Issue{Code: IssueStructure, Stage: "extract", Severity: SeverityError, Message: "no root"}, errors.New("no root"))
	r.Finish()
	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Len(t, r.Errors, 1)

	r = fixedReport()
	r.AddIssue(Issue{Code: IssueCanceled, Stage: "translate", Severity: SeverityError}, errors.New("canceled"))
	r.Finish()
	assert.Equal(t, OutcomeCanceled, r.Outcome)
}

func TestTotals(t *testing.T) {
	r := fixedReport()
	r.Lang("en").FilesWritten = 2
	r.Lang("ja").FilesWritten = 1
	r.Lang("ja").SegmentFailures = 4
	tot := r.Totals()
	assert.Equal(t, 3, tot.FilesWritten)
	assert.Equal(t, 4, tot.SegmentFailures)
}

func TestPersist(t *testing.T) {
	r := fixedReport()
	r.Sections = 2
	r.Entries = 5
	r.Lang("en").FilesWritten = 5
	r.ObserveStage("translate", 1500*time.Millisecond)
	r.AddIssue(Issue{Code: IssueOutlineMismatch, Stage: "translate", Severity: SeverityWarning, Message: "outline changed", Language: "en", File: "a/b.md"}, nil)

	dir := filepath.Join(t.TempDir(), "work")
	require.NoError(t, r.Persist(dir))

	data, err := os.ReadFile(filepath.Join(dir, JSONFile))
	require.NoError(t, err)
	var got Serializable
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, SchemaVersion, got.SchemaVersion)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, int64(90000), got.DurationMS)
	assert.Equal(t, int64(1500), got.StageDurationsMS["translate"])
	assert.Equal(t, 5, got.Languages["en"].FilesWritten)
	assert.Equal(t, OutcomeWarning, got.Outcome, "a warning issue downgrades the outcome")
	require.Len(t, got.Issues, 1)
	assert.Empty(t, got.Errors)

	txt, err := os.ReadFile(filepath.Join(dir, TextFile))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "run=run-1 sections=2 entries=5 written=5")
	assert.Contains(t, string(txt), "  en: total=0 written=5")
	assert.Contains(t, string(txt), "[warning] OUTLINE_MISMATCH outline changed lang=en file=a/b.md")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files are renamed away")
}
