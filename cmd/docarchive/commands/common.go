package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Convert   ConvertCmd   `cmd:"" help:"Convert a documentation catalog into an archive"`
	Index     IndexCmd     `cmd:"" help:"Rebuild the navigator index of an existing archive"`
	Merge     MergeCmd     `cmd:"" help:"Merge multiple archives into one"`
	Transform TransformCmd `cmd:"" help:"Transform an archive for static hosting"`
	Preview   PreviewCmd   `cmd:"" help:"Serve an archive locally and rebuild on catalog changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// reportProblems logs every problem from a build at the matching log level.
func reportProblems(problems []diagnostics.Problem) {
	diagnostics.SortProblems(problems)
	for _, p := range problems {
		attrs := []any{
			slog.String("id", p.Diagnostic.Identifier),
			slog.String("severity", p.Diagnostic.Severity.String()),
		}
		if p.Diagnostic.Source != nil {
			attrs = append(attrs, slog.String("source", p.Diagnostic.Source.Path))
		}
		switch {
		case p.Diagnostic.Severity >= diagnostics.SeverityError:
			slog.Error(p.Diagnostic.Summary, attrs...)
		case p.Diagnostic.Severity == diagnostics.SeverityWarning:
			slog.Warn(p.Diagnostic.Summary, attrs...)
		default:
			slog.Info(p.Diagnostic.Summary, attrs...)
		}
	}
}
