package commands

import (
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// TranslateCmd implements the 'translate' command. The source locale pages
// are never rewritten.
type TranslateCmd struct {
	Lang     []string `short:"l" help:"Restrict translation to these languages (code or locale dir)"`
	Force    bool     `short:"f" help:"Retranslate pages that already exist"`
	FromDocs bool     `name:"from-docs" help:"Rebuild the structure from the existing docs tree instead of fetching the document"`
}

func (t *TranslateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	langs, err := selectLanguages(cfg, t.Lang)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	return RunPass(ctx, cfg, g.logger(), pipeline.Options{
		Translate:  true,
		Languages:  langs,
		Force:      t.Force,
		FromDocs:   t.FromDocs,
		SkipSource: true,
	}, false)
}
