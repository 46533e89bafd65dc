package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/frontmatterops"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/metrics"
	"git.home.luguber.info/inful/docmigrate/internal/projector"
	"git.home.luguber.info/inful/docmigrate/internal/report"
	"git.home.luguber.info/inful/docmigrate/internal/translate"
)

func (r *Runner) translateAll(ctx context.Context, rep *report.Report, dirs []projector.Directory, pages [][]page, opts Options, logger *slog.Logger) error {
	if r.translator == nil {
		err := foundationerrors.ConfigError("translation requested but no translator is configured").Build()
		r.issue(rep, report.IssueTranslationFailure, StageTranslate, report.SeverityError, err)
		return err
	}
	langs := opts.Languages
	if len(langs) == 0 {
		langs = r.cfg.Translation.Languages
	}
	doc := translate.NewDocument(r.translator, logger)
	for _, lang := range langs {
		if err := r.translateLanguage(ctx, rep, doc, lang, dirs, pages, opts.Force, logger.With(logfields.Language(lang.Code))); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) translateLanguage(ctx context.Context, rep *report.Report, doc *translate.Document, lang config.Language, dirs []projector.Directory, pages [][]page, force bool, logger *slog.Logger) error {
	root := r.layout.LocalePath(lang)
	stats := rep.Lang(lang.Code)
	logger.Info("Translating locale", logfields.Path(root))

	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		category := dir.Category()
		if r.cfg.Translation.ShouldTranslateLabels() {
			label, err := doc.TranslateText(ctx, category.Label, lang)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.issue(rep, report.IssueLabelTranslation, StageTranslate, report.SeverityWarning, err, inLanguage(lang.Code), inFile(dir.Name))
			}
			category.Label = label
		}
		if err := r.sink.WriteCategory(filepath.Join(root, dir.Name), category); err != nil {
			stats.WriteErrors++
			r.issue(rep, report.IssueWriteFailure, StageTranslate, report.SeverityWarning, err, inLanguage(lang.Code), inFile(dir.Name))
		}

		for _, p := range pages[i] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.translatePage(ctx, rep, doc, lang, root, p, force, logger); err != nil {
				return err
			}
		}
	}

	logger.Info("Locale translated",
		slog.Int("written", stats.FilesWritten),
		slog.Int("skipped", stats.FilesSkipped),
		slog.Int("failed", stats.FilesFailed),
		slog.Int("segment_failures", stats.SegmentFailures))
	return nil
}

// translatePage translates one page. Only cancellation is returned as an error;
// everything else is counted and recorded as an issue.
func (r *Runner) translatePage(ctx context.Context, rep *report.Report, doc *translate.Document, lang config.Language, root string, p page, force bool, logger *slog.Logger) error {
	stats := rep.Lang(lang.Code)
	stats.FilesTotal++
	target := filepath.Join(root, p.rel)
	fingerprint := frontmatterops.Fingerprint(p.content)

	if !force && r.sink.Exists(target) && !r.sourceChanged(ctx, lang, p.rel, fingerprint, logger) {
		stats.FilesSkipped++
		r.recorder.AddFiles(lang.Code, metrics.FileSkipped, 1)
		logger.Debug("Translated page is up to date", logfields.File(p.rel))
		return nil
	}

	start := time.Now()
	res, err := doc.TranslateMarkdown(ctx, p.content, lang)
	r.recorder.ObserveTranslateDuration(lang.Code, time.Since(start))
	if err != nil {
		return err
	}
	stats.Segments += res.Segments
	stats.SegmentFailures += res.Failures
	r.recorder.AddSegments(lang.Code, res.Segments, res.Failures)

	if res.OutlineMismatch {
		stats.OutlineMismatches++
		r.issue(rep, report.IssueOutlineMismatch, StageTranslate, report.SeverityWarning,
			foundationerrors.TranslationError("heading outline changed during translation").Warning().Build(),
			inLanguage(lang.Code), inFile(p.rel))
	}

	degraded := res.Degraded()
	if degraded {
		stats.FilesFailed++
		r.recorder.AddFiles(lang.Code, metrics.FileFailed, 1)
		r.issue(rep, report.IssueTranslationFailure, StageTranslate, report.SeverityWarning, res.FirstError,
			inLanguage(lang.Code), inFile(p.rel))
		if r.cfg.Translation.FailurePolicy != config.FailurePolicyPartial {
			logger.Warn("Translation incomplete, page skipped",
				logfields.File(p.rel), slog.Int("segment_failures", res.Failures))
			return nil
		}
		logger.Warn("Translation incomplete, writing partial page",
			logfields.File(p.rel), slog.Int("segment_failures", res.Failures))
	}

	if err := r.sink.WriteFile(target, []byte(res.Content)); err != nil {
		stats.WriteErrors++
		if !degraded {
			stats.FilesFailed++
			r.recorder.AddFiles(lang.Code, metrics.FileFailed, 1)
		}
		r.issue(rep, report.IssueWriteFailure, StageTranslate, report.SeverityWarning, err, inLanguage(lang.Code), inFile(p.rel))
		logger.Warn("Failed to write translated page", logfields.Path(target), logfields.Error(err))
		return nil
	}
	if degraded {
		return nil
	}

	stats.FilesWritten++
	r.recorder.AddFiles(lang.Code, metrics.FileWritten, 1)
	if r.files != nil {
		if err := r.files.SetFileFingerprint(ctx, lang.Code, p.rel, fingerprint); err != nil {
			r.issue(rep, report.IssueCacheFailure, StageTranslate, report.SeverityWarning, err, inLanguage(lang.Code), inFile(p.rel))
		}
	}
	return nil
}

// sourceChanged reports whether the source of an existing translated page
// differs from the one it was produced from. Without a recorded fingerprint the
// existing page is kept.
func (r *Runner) sourceChanged(ctx context.Context, lang config.Language, rel, fingerprint string, logger *slog.Logger) bool {
	if r.files == nil {
		return false
	}
	stored, ok, err := r.files.FileFingerprint(ctx, lang.Code, rel)
	if err != nil {
		logger.Warn("Fingerprint lookup failed", logfields.File(rel), logfields.Error(err))
		return false
	}
	return ok && stored != fingerprint
}
