package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docarchive/internal/action"
)

// MergeCmd implements the 'merge' command.
type MergeCmd struct {
	Archives []string `arg:"" help:"Archives to merge, in precedence order." type:"path"`
	Output   string   `short:"o" name:"output" default:"./Combined.doccarchive" help:"Output directory for the merged archive."`
}

func (m *MergeCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	act := action.NewMergeAction(action.MergeOptions{
		Inputs: m.Archives,
		Output: m.Output,
	})
	if _, err := act.Perform(ctx); err != nil {
		return err
	}
	slog.Info("Merged archive written", slog.String("output", m.Output), slog.Int("inputs", len(m.Archives)))
	return nil
}
