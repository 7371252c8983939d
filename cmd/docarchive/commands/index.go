package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docarchive/internal/action"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	Archive string `arg:"" help:"Path to an existing documentation archive." type:"path"`
	NoJSON  bool   `name:"no-json" help:"Skip the JSON navigator index."`
	NoDB    bool   `name:"no-db" help:"Skip the SQLite navigator index."`
}

func (i *IndexCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	act := action.NewIndexAction(action.IndexOptions{
		ArchivePath: i.Archive,
		EmitJSON:    !i.NoJSON,
		EmitDB:      !i.NoDB,
	})
	result, err := act.Perform(ctx)
	if err != nil {
		return err
	}
	for _, out := range result.Outputs {
		slog.Info("Index written", slog.String("path", out))
	}
	return nil
}
