package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/doctree"
	"git.home.luguber.info/inful/docmigrate/internal/feishu"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/notify"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
	"git.home.luguber.info/inful/docmigrate/internal/report"
	"git.home.luguber.info/inful/docmigrate/internal/site"
	"git.home.luguber.info/inful/docmigrate/internal/transcache"
)

// page is one rendered source locale page.
type page struct {
	rel     string // path relative to the locale root
	content string
}

// Run executes one pass. The returned report is always non-nil; the error is
// non-nil only when the pass could not complete. Per-file failures are
// recorded in the report instead.
func (r *Runner) Run(ctx context.Context, opts Options) (*report.Report, error) {
	rep := report.New(r.newID(), r.cfg.Source.DocumentID)
	logger := r.logger.With(logfields.RunID(rep.RunID))
	logger.Info("Run started",
		logfields.Document(rep.DocumentID),
		slog.Bool("translate", opts.Translate),
		slog.Bool("from_docs", opts.FromDocs))

	err := r.run(ctx, rep, opts, logger)
	if err == nil && opts.Publish != nil && !opts.DumpOnly {
		err = r.publish(ctx, rep, opts.Publish)
	}
	if err != nil && ctx.Err() != nil {
		r.issue(rep, report.IssueCanceled, "", report.SeverityWarning, ctx.Err())
	}
	r.finish(ctx, rep, logger)
	return rep, err
}

func (r *Runner) run(ctx context.Context, rep *report.Report, opts Options, logger *slog.Logger) error {
	structure, err := r.structure(ctx, rep, opts, logger)
	if err != nil || structure == nil {
		return err
	}
	rep.Sections = len(structure.Sections)
	rep.Entries = structure.EntryCount()

	var dirs []projector.Directory
	var pages [][]page
	err = r.stage(rep, StageProject, func() error {
		dirs = projector.Project(structure, r.projectorOptions())
		pages, err = render(dirs, r.projectorOptions())
		return err
	})
	if err != nil {
		return err
	}

	if !opts.SkipSource && !opts.FromDocs {
		if err := r.stage(rep, StageWrite, func() error {
			return r.writeSource(ctx, rep, dirs, pages, logger)
		}); err != nil {
			return err
		}
	}

	if opts.Translate {
		return r.stage(rep, StageTranslate, func() error {
			return r.translateAll(ctx, rep, dirs, pages, opts, logger)
		})
	}
	return nil
}

// structure obtains the heading structure, either from the document source or
// from the existing docs tree. A nil structure with a nil error means the run
// stopped early on purpose.
func (r *Runner) structure(ctx context.Context, rep *report.Report, opts Options, logger *slog.Logger) (*doctree.Structure, error) {
	if opts.FromDocs {
		var s *doctree.Structure
		err := r.stage(rep, StageScan, func() error {
			var err error
			s, err = site.ScanDocs(r.layout.DocsPath(), r.cfg.Site.IntroSuffix)
			return err
		})
		if err != nil {
			r.issue(rep, report.IssueStructure, StageScan, report.SeverityError, err)
			return nil, err
		}
		return s, nil
	}

	var doc *feishu.Document
	err := r.stage(rep, StageFetch, func() error {
		var err error
		doc, err = r.source.FetchDocument(ctx, r.cfg.Source.DocumentID)
		return err
	})
	if err != nil {
		r.issue(rep, report.IssueFetchFailure, StageFetch, report.SeverityError, err)
		return nil, err
	}
	logger.Info("Document fetched", logfields.Count(len(doc.Blocks)))

	rawPath := filepath.Join(r.cfg.Site.WorkDir, RawPayloadFile)
	if err := r.sink.WriteFile(rawPath, doc.Raw); err != nil {
		if opts.DumpOnly {
			r.issue(rep, report.IssueWriteFailure, StageFetch, report.SeverityError, err, inFile(rawPath))
			return nil, err
		}
		r.issue(rep, report.IssueWriteFailure, StageFetch, report.SeverityWarning, err, inFile(rawPath))
		logger.Warn("Failed to save raw payload", logfields.Path(rawPath), logfields.Error(err))
	}
	if opts.DumpOnly {
		logger.Info("Raw payload saved", logfields.Path(rawPath))
		return nil, nil
	}

	var s *doctree.Structure
	err = r.stage(rep, StageExtract, func() error {
		var err error
		s, err = doctree.Extract(doc.Blocks,
			doctree.WithIntroSuffix(r.cfg.Site.IntroSuffix),
			doctree.WithLogger(logger))
		return err
	})
	if err != nil {
		r.issue(rep, report.IssueStructure, StageExtract, report.SeverityError, err)
		dumpPath := filepath.Join(r.cfg.Site.WorkDir, DegradedDumpFile)
		dump := doctree.DegradedDump(doc.Blocks, r.cfg.Site.DegradedDumpBlocks)
		if werr := r.sink.WriteFile(dumpPath, []byte(dump)); werr != nil {
			logger.Warn("Failed to write degraded dump", logfields.Path(dumpPath), logfields.Error(werr))
		} else {
			logger.Warn("Structure extraction failed, degraded dump written", logfields.Path(dumpPath))
		}
		return nil, err
	}

	data, err := EncodeStructure(s)
	if err == nil {
		err = r.sink.WriteFile(filepath.Join(r.cfg.Site.WorkDir, StructureFile), data)
	}
	if err != nil {
		r.issue(rep, report.IssueWriteFailure, StageExtract, report.SeverityWarning, err, inFile(StructureFile))
	}
	return s, nil
}

// EncodeStructure renders a structure as indented JSON keeping non-ASCII text readable.
func EncodeStructure(s *doctree.Structure) ([]byte, error) {
	compact, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// LoadStructure reads a structure saved by a previous run.
func LoadStructure(data []byte, introSuffix string) (*doctree.Structure, error) {
	s := doctree.NewStructure(introSuffix)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "decode structure").Build()
	}
	return s, nil
}

func render(dirs []projector.Directory, opts projector.Options) ([][]page, error) {
	out := make([][]page, len(dirs))
	for i, dir := range dirs {
		for _, f := range dir.Files {
			content, err := f.Render(opts)
			if err != nil {
				return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "render page").
					WithContext("file", filepath.Join(dir.Name, f.Name)).
					Build()
			}
			out[i] = append(out[i], page{rel: filepath.Join(dir.Name, f.Name), content: content})
		}
	}
	return out, nil
}

func (r *Runner) writeSource(ctx context.Context, rep *report.Report, dirs []projector.Directory, pages [][]page, logger *slog.Logger) error {
	if sidebar := r.layout.SidebarPath(); sidebar != "" && r.cfg.Site.ShouldBackupSidebar() {
		if bak, err := site.Backup(sidebar); err != nil {
			r.issue(rep, report.IssueWriteFailure, StageWrite, report.SeverityWarning, err, inFile(sidebar))
		} else if bak != "" {
			logger.Debug("Sidebar backed up", logfields.Path(bak))
		}
	}

	code := r.cfg.Translation.SourceLanguage.Code
	stats := rep.Lang(code)
	root := r.layout.DocsPath()
	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.sink.WriteCategory(filepath.Join(root, dir.Name), dir.Category()); err != nil {
			stats.WriteErrors++
			r.issue(rep, report.IssueWriteFailure, StageWrite, report.SeverityWarning, err, inLanguage(code), inFile(dir.Name))
		}
		for _, p := range pages[i] {
			stats.FilesTotal++
			path := filepath.Join(root, p.rel)
			if err := r.sink.WriteFile(path, []byte(p.content)); err != nil {
				stats.WriteErrors++
				stats.FilesFailed++
				r.recorder.AddFiles(code, metrics.FileFailed, 1)
				r.issue(rep, report.IssueWriteFailure, StageWrite, report.SeverityWarning, err, inLanguage(code), inFile(p.rel))
				logger.Warn("Failed to write page", logfields.Path(path), logfields.Error(err))
				continue
			}
			stats.FilesWritten++
			r.recorder.AddFiles(code, metrics.FileWritten, 1)
		}
	}
	logger.Info("Source pages written",
		logfields.Language(code),
		logfields.Count(stats.FilesWritten),
		slog.Int("write_errors", stats.WriteErrors))
	return nil
}

func (r *Runner) publish(ctx context.Context, rep *report.Report, fn PublishFunc) error {
	return r.stage(rep, StagePublish, func() error {
		commit, err := fn(ctx)
		if err != nil {
			r.issue(rep, report.IssuePublishFailure, StagePublish, report.SeverityError, err)
			return err
		}
		rep.Commit = commit
		return nil
	})
}

// stage times fn and records its result.
func (r *Runner) stage(rep *report.Report, name StageName, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	rep.ObserveStage(string(name), d)
	r.recorder.ObserveStageDuration(string(name), d)
	r.recorder.IncStageResult(string(name), stageResult(err))
	return err
}

func stageResult(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		if ce, ok := foundationerrors.AsClassified(err); ok && ce.Severity() == foundationerrors.SeverityWarning {
			return metrics.ResultWarning
		}
		return metrics.ResultFatal
	}
}

// finish derives the outcome and hands the report to every sink of run results.
// Failures here never change the run error.
func (r *Runner) finish(ctx context.Context, rep *report.Report, logger *slog.Logger) {
	if c, ok := r.translator.(interface{ Stats() (int64, int64) }); ok {
		rep.CacheHits, rep.CacheMisses = c.Stats()
		r.recorder.SetCacheHits(rep.CacheHits, rep.CacheMisses)
	}
	rep.Finish()

	// Results are delivered even when the run was canceled.
	ctx = context.WithoutCancel(ctx)

	if r.notifier != nil {
		err := r.stage(rep, StageNotify, func() error {
			return r.notifier.Notify(ctx, notify.EventFromReport(rep))
		})
		if err != nil {
			r.issue(rep, report.IssueNotifyFailure, StageNotify, report.SeverityWarning, err)
			logger.Warn("Run notification failed", logfields.Error(err))
			rep.Finish()
		}
	}

	if err := rep.Persist(r.cfg.Site.WorkDir); err != nil {
		logger.Warn("Failed to persist run report", logfields.Error(err))
	}
	if r.runs != nil {
		if err := r.recordRun(ctx, rep); err != nil {
			logger.Warn("Failed to record run history", logfields.Error(err))
		}
	}

	r.recorder.ObserveRunDuration(rep.Duration())
	r.recorder.IncRunOutcome(metrics.RunOutcome(rep.Outcome))

	attrs := []any{
		slog.String("outcome", string(rep.Outcome)),
		logfields.DurationMS(float64(rep.Duration().Milliseconds())),
		slog.String("summary", rep.Summary()),
	}
	if rep.Outcome == report.OutcomeSuccess {
		logger.Info("Run finished", attrs...)
	} else {
		logger.Warn("Run finished", attrs...)
	}
}

func (r *Runner) recordRun(ctx context.Context, rep *report.Report) error {
	summary, err := json.Marshal(rep.Serializable())
	if err != nil {
		return err
	}
	return r.runs.RecordRun(ctx, transcache.Run{
		ID:         rep.RunID,
		StartedAt:  rep.Start,
		FinishedAt: rep.End,
		Status:     string(rep.Outcome),
		Summary:    summary,
	})
}
