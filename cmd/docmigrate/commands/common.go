package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmigrate/internal/config"
)

// LogLevelEnv overrides the log level chosen by --verbose.
const LogLevelEnv = "DOCMIGRATE_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docmigrate.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync      SyncCmd      `cmd:"" help:"Fetch the document, rebuild the docs tree and optionally translate it"`
	Translate TranslateCmd `cmd:"" help:"Translate the docs tree into the configured locales"`
	Reorder   ReorderCmd   `cmd:"" help:"Rewrite category and page positions from the saved structure"`
	Dump      DumpCmd      `cmd:"" help:"Save the raw document payload without generating pages"`
	Publish   PublishCmd   `cmd:"" help:"Commit and push the site repository"`
	Schedule  ScheduleCmd  `cmd:"" help:"Run sync periodically"`
	History   HistoryCmd   `cmd:"" help:"List recent runs"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// parseLogLevel honours DOCMIGRATE_LOG_LEVEL before falling back to the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
