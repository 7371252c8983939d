package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docarchive/cmd/docarchive/commands"
	"git.home.luguber.info/inful/docarchive/internal/version"
)

func main() {
	// Best-effort .env loading for local development; missing file is fine.
	_ = godotenv.Load()

	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docarchive"),
		kong.Description("Compile documentation catalogs into browsable archives."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
