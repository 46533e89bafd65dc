package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmigrate/cmd/docmigrate/commands"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("docmigrate"),
		kong.Description("Migrate a Feishu document into a multilingual Docusaurus site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	err := parser.Run(global, cli)
	foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
