// Package pipeline runs one migration pass: fetch the document, rebuild its
// heading structure, write the source locale pages and translate them into
// every target locale. A run is strictly sequential.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/feishu"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/notify"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
	"git.home.luguber.info/inful/docmigrate/internal/report"
	"git.home.luguber.info/inful/docmigrate/internal/site"
	"git.home.luguber.info/inful/docmigrate/internal/transcache"
	"git.home.luguber.info/inful/docmigrate/internal/translate"
)

// StageName identifies a step of a run in reports and metrics.
type StageName string

const (
	StageFetch     StageName = "fetch"
	StageScan      StageName = "scan"
	StageExtract   StageName = "extract"
	StageProject   StageName = "project"
	StageWrite     StageName = "write"
	StageTranslate StageName = "translate"
	StagePublish   StageName = "publish"
	StageNotify    StageName = "notify"
)

const (
	// RawPayloadFile holds the unmodified block payload of the last fetch.
	RawPayloadFile = "api_response.json"
	// StructureFile holds the extracted heading structure.
	StructureFile = "structure.json"
	// DegradedDumpFile holds a flat rendering of the blocks when extraction fails.
	DegradedDumpFile = "extracted_content.md"
)

// Source yields the block list of a document.
type Source interface {
	FetchDocument(ctx context.Context, documentID string) (*feishu.Document, error)
}

// Sink receives generated pages and category files.
type Sink interface {
	WriteFile(path string, content []byte) error
	WriteCategory(dir string, c projector.Category) error
	Exists(path string) bool
}

// Notifier announces finished runs.
type Notifier interface {
	Notify(ctx context.Context, event notify.RunEvent) error
}

// FileIndex remembers the source fingerprint each translated page was produced from.
type FileIndex interface {
	FileFingerprint(ctx context.Context, lang, path string) (string, bool, error)
	SetFileFingerprint(ctx context.Context, lang, path, fingerprint string) error
}

// RunLog keeps a history of finished runs.
type RunLog interface {
	RecordRun(ctx context.Context, r transcache.Run) error
}

// PublishFunc commits the generated site and returns the commit hash, or ""
// when nothing changed.
type PublishFunc func(ctx context.Context) (string, error)

// Options selects what a run does.
type Options struct {
	// Translate produces the target locales after the source pages.
	Translate bool
	// Languages restricts the target locales. Empty means every configured language.
	Languages []config.Language
	// Force retranslates pages that already exist.
	Force bool
	// FromDocs rebuilds the structure from the existing docs tree instead of fetching.
	FromDocs bool
	// SkipSource leaves the source locale pages untouched.
	SkipSource bool
	// DumpOnly stops after saving the raw payload.
	DumpOnly bool
	// Publish, when set, runs after a successful pass.
	Publish PublishFunc
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg        *config.Config
	source     Source
	sink       Sink
	layout     site.Layout
	translator translate.Translator
	files      FileIndex
	runs       RunLog
	notifier   Notifier
	recorder   metrics.Recorder
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink replaces the filesystem writer.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithTranslator sets the translator used for target locales.
func WithTranslator(t translate.Translator) Option {
	return func(r *Runner) { r.translator = t }
}

// WithFileIndex enables fingerprint based skipping of unchanged pages.
func WithFileIndex(f FileIndex) Option {
	return func(r *Runner) { r.files = f }
}

// WithRunLog records every finished run.
func WithRunLog(l RunLog) Option {
	return func(r *Runner) { r.runs = l }
}

// WithNotifier announces every finished run.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(m metrics.Recorder) Option {
	return func(r *Runner) {
		if m != nil {
			r.recorder = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRunID overrides the run id generator.
func WithRunID(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// New creates a Runner reading from source.
func New(cfg *config.Config, source Source, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		source:   source,
		layout:   site.NewLayout(cfg.Site),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sink == nil {
		r.sink = site.NewWriter(r.logger)
	}
	return r
}

// Layout returns the site layout the runner writes to.
func (r *Runner) Layout() site.Layout { return r.layout }

// ProjectorOptions derives the page layout options from the site configuration.
func ProjectorOptions(cfg config.SiteConfig) projector.Options {
	return projector.Options{
		CategoryStart:       cfg.CategoryStart,
		HideTableOfContents: cfg.HideTableOfContents,
		HideTitle:           cfg.HideTitle,
	}
}

func (r *Runner) projectorOptions() projector.Options { return ProjectorOptions(r.cfg.Site) }

func (r *Runner) issue(rep *report.Report, code report.IssueCode, stage StageName, sev report.IssueSeverity, err error, attrs ...func(*report.Issue)) {
	is := report.Issue{Code: code, Stage: string(stage), Severity: sev}
	if err != nil {
		is.Message = err.Error()
	}
	for _, a := range attrs {
		a(&is)
	}
	rep.AddIssue(is, err)
}

func inLanguage(code string) func(*report.Issue) {
	return func(is *report.Issue) { is.Language = code }
}

func inFile(path string) func(*report.Issue) {
	return func(is *report.Issue) { is.File = path }
}
