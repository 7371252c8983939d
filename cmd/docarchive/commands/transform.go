package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docarchive/internal/action"
)

// TransformCmd implements the 'transform' command.
type TransformCmd struct {
	Archive  string `arg:"" help:"Path to an existing documentation archive." type:"path"`
	Output   string `short:"o" name:"output" help:"Write the transformed archive here instead of in place."`
	BasePath string `name:"hosting-base-path" help:"Base path the archive will be hosted under."`
}

func (t *TransformCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	act := action.NewTransformAction(action.TransformOptions{
		ArchivePath: t.Archive,
		OutputPath:  t.Output,
		BasePath:    t.BasePath,
	})
	result, err := act.Perform(ctx)
	if err != nil {
		return err
	}
	for _, out := range result.Outputs {
		slog.Info("Transformed archive written", slog.String("path", out))
	}
	return nil
}
