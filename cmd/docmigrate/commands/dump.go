package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
)

// DumpCmd implements the 'dump' command.
type DumpCmd struct{}

func (d *DumpCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := RunPass(ctx, cfg, g.logger(), pipeline.Options{DumpOnly: true}, false); err != nil {
		return err
	}
	fmt.Printf("Raw payload written to %s\n", filepath.Join(cfg.Site.WorkDir, pipeline.RawPayloadFile))
	return nil
}
