package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/wixpack/cmd/wixpack/commands"
	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("wixpack"),
		kong.Description("Generate WiX installer manifests from a payload directory tree."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()})

	adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	adapter.HandleError(err)
}
