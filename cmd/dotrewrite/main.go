package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dotrewrite/cmd/dotrewrite/commands"
	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("dotrewrite"),
		kong.Description("Rewrite dotted names in zipped documentation archives."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
