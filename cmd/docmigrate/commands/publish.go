package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docmigrate/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Message string `short:"m" help:"Commit message (defaults to publish.message)"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := publish.New(cfg.Publish, g.logger()).Publish(ctx, cfg.Site.Root, p.Message)
	if err != nil {
		return err
	}
	switch {
	case !res.Changed:
		fmt.Println("Nothing to publish")
	case res.Pushed:
		fmt.Printf("Published %d files in %s\n", res.Files, res.Commit)
	default:
		fmt.Printf("Committed %d files in %s (not pushed)\n", res.Files, res.Commit)
	}
	return nil
}
