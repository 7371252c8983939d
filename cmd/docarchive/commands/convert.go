package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docarchive/internal/action"
	"git.home.luguber.info/inful/docarchive/internal/convert"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/emit"
	"git.home.luguber.info/inful/docarchive/internal/gitsource"
	"git.home.luguber.info/inful/docarchive/internal/resolver"
	"git.home.luguber.info/inful/docarchive/internal/retry"
)

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	Catalog string `arg:"" optional:"" help:"Path to the documentation catalog (.docc directory)." type:"path"`
	Output  string `short:"o" name:"output" default:"./Documentation.doccarchive" help:"Output directory for the archive."`

	FromGit   string `name:"from-git" help:"Clone the catalog from this git URL instead of reading a local path."`
	GitRef    string `name:"git-ref" help:"Branch or tag to check out when using --from-git."`
	GitSubdir string `name:"git-subdir" help:"Catalog path inside the cloned repository."`

	FallbackDisplayName      string `name:"fallback-display-name" help:"Display name used when the catalog has no Info.plist value."`
	FallbackBundleIdentifier string `name:"fallback-bundle-identifier" help:"Bundle identifier used when the catalog has no Info.plist value."`

	BatchSize int    `name:"batch-size" default:"0" help:"Concurrent page conversions (0 uses the CPU count)."`
	Coverage  string `name:"coverage" enum:"none,brief,detailed" default:"none" help:"Emit a documentation coverage summary (none, brief, detailed)."`

	Digest bool `name:"digest" default:"true" negatable:"" help:"Write digest files (diagnostics, indexing records, linkable entities, assets)."`

	HTMLTemplate              string `name:"html-template" help:"Renderer template directory; enables the per-page HTML mirror." type:"path"`
	HostingBasePath           string `name:"hosting-base-path" help:"Base path the archive will be hosted under."`
	TransformForStaticHosting bool   `name:"transform-for-static-hosting" help:"Apply the static hosting transform after conversion."`

	ExternalResolver []string `name:"external-resolver" help:"Executable resolving links to another bundle; repeatable."`

	DiagnosticLevel  string `name:"diagnostic-level" enum:"hint,information,warning,error" default:"warning" help:"Minimum severity included in diagnostic output."`
	WarningsAsErrors bool   `name:"warnings-as-errors" help:"Treat warnings as errors."`
	Analyze          bool   `name:"analyze" help:"Report every diagnostic regardless of --diagnostic-level."`
}

func (c *ConvertCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalogPath := c.Catalog
	if c.FromGit != "" {
		fetched, cleanup, err := gitsource.Fetch(ctx, c.FromGit, gitsource.FetchOptions{
			Ref:    c.GitRef,
			Subdir: c.GitSubdir,
			Retry:  retry.DefaultPolicy(),
		})
		if err != nil {
			return err
		}
		defer cleanup()
		catalogPath = fetched
	}
	if catalogPath == "" {
		return fmt.Errorf("no catalog given: pass a catalog path or --from-git")
	}

	level, err := diagnostics.ParseSeverity(c.DiagnosticLevel)
	if err != nil {
		return err
	}
	engineOpts := []diagnostics.EngineOption{diagnostics.WithMinimumSeverity(level)}
	if c.WarningsAsErrors {
		engineOpts = append(engineOpts, diagnostics.WithWarningsAsErrors())
	}
	if c.Analyze {
		engineOpts = append(engineOpts, diagnostics.WithUnfilteredOutput())
	}

	coverage, err := convert.ParseCoverageLevel(c.Coverage)
	if err != nil {
		return err
	}

	var externals []resolver.ExternalResolver
	for _, executable := range c.ExternalResolver {
		ext, err := resolver.StartProcessResolver(ctx, executable, nil, func(line string) {
			slog.Warn("External resolver stderr", slog.String("executable", executable), slog.String("line", line))
		})
		if err != nil {
			return err
		}
		defer func() { _ = ext.Close() }()
		externals = append(externals, ext)
	}

	act := action.NewConvertAction(action.ConvertOptions{
		CatalogPath:         catalogPath,
		OutputPath:          c.Output,
		FallbackDisplayName: c.FallbackDisplayName,
		FallbackIdentifier:  c.FallbackBundleIdentifier,
		BatchSize:           c.BatchSize,
		CoverageLevel:       coverage,
		Digests: emit.DigestOptions{
			Diagnostics:      c.Digest,
			IndexingRecords:  c.Digest,
			LinkableEntities: c.Digest,
			Assets:           c.Digest,
			Coverage:         coverage != convert.CoverageNone,
		},
		TemplatePath:              c.HTMLTemplate,
		HostingBasePath:           c.HostingBasePath,
		TransformForStaticHosting: c.TransformForStaticHosting,
		ExternalResolvers:         externals,
		Diagnostics:               diagnostics.NewEngine(engineOpts...),
	})

	result, err := act.Perform(ctx)
	reportProblems(result.Problems)
	if err != nil {
		return err
	}
	if result.DidEncounterError {
		return fmt.Errorf("conversion failed with errors")
	}
	slog.Info("Archive written", slog.String("output", c.Output))
	return nil
}
