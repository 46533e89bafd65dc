package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Translate bool     `short:"t" help:"Translate into the configured locales after writing the source pages"`
	Publish   bool     `short:"p" help:"Commit and push the site repository after a successful run"`
	DumpOnly  bool     `name:"dump-only" help:"Only save the raw document payload"`
	Lang      []string `short:"l" help:"Restrict translation to these languages (code or locale dir)"`
	Force     bool     `short:"f" help:"Retranslate pages that already exist"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	langs, err := selectLanguages(cfg, s.Lang)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	opts := pipeline.Options{
		Translate: s.Translate,
		Languages: langs,
		Force:     s.Force,
		DumpOnly:  s.DumpOnly,
	}
	return RunPass(ctx, cfg, g.logger(), opts, s.Publish || cfg.Publish.Enabled)
}

// RunPass executes one pipeline run with the collaborators described by cfg
// and prints the run summary on stdout.
func RunPass(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts pipeline.Options, publishAfter bool) error {
	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	runner, err := rt.runner(opts.Translate)
	if err != nil {
		return err
	}
	if publishAfter {
		opts.Publish = rt.publishFunc()
	}
	rep, err := runner.Run(ctx, opts)
	rt.exportMetrics()
	fmt.Println(rep.Summary())
	return err
}

func selectLanguages(cfg *config.Config, names []string) ([]config.Language, error) {
	langs, err := cfg.Translation.SelectLanguages(names)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid --lang").Build()
	}
	return langs, nil
}
