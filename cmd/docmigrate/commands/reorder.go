package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/pipeline"
	"git.home.luguber.info/inful/docmigrate/internal/site"
)

// ReorderCmd implements the 'reorder' command.
type ReorderCmd struct {
	Structure string `short:"s" help:"Structure file to order by (defaults to structure.json in the work dir)" type:"path"`
}

func (r *ReorderCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	stats, err := RunReorder(cfg, r.Structure, g)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %d categories and %d pages, %d missing\n",
		stats.CategoriesUpdated, stats.FilesUpdated, len(stats.Missing))
	return nil
}

// RunReorder applies the order of a saved structure to the docs tree and every locale tree.
func RunReorder(cfg *config.Config, structurePath string, g *Global) (site.ReorderStats, error) {
	if structurePath == "" {
		structurePath = filepath.Join(cfg.Site.WorkDir, pipeline.StructureFile)
	}
	data, err := os.ReadFile(structurePath)
	if err != nil {
		if os.IsNotExist(err) {
			return site.ReorderStats{}, foundationerrors.NotFoundError("structure file not found, run sync first").
				WithContext("path", structurePath).
				Build()
		}
		return site.ReorderStats{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read structure file").
			WithContext("path", structurePath).
			Build()
	}
	s, err := pipeline.LoadStructure(data, cfg.Site.IntroSuffix)
	if err != nil {
		return site.ReorderStats{}, err
	}
	layout := site.NewLayout(cfg.Site)
	w := site.NewWriter(g.logger())
	return w.Reorder(layout.Bases(cfg.Translation.Languages), s, pipeline.ProjectorOptions(cfg.Site))
}
