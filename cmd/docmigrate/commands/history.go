package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/transcache"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), cfg, h.Limit, os.Stdout)
}

// RunHistory prints the most recent runs recorded in the cache database.
func RunHistory(ctx context.Context, cfg *config.Config, limit int, out io.Writer) error {
	if !cfg.Cache.Enabled {
		return foundationerrors.ConfigError("run history requires cache.enabled").Build()
	}
	c, err := transcache.Open(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer c.Close()

	runs, err := c.RecentRuns(ctx, limit)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryCache, "read run history").Build()
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tSTATUS")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Format(time.RFC3339),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Status)
	}
	return tw.Flush()
}
