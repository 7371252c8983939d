package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docarchive/internal/action"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/emit"
	"git.home.luguber.info/inful/docarchive/internal/observability"
	"git.home.luguber.info/inful/docarchive/internal/preview"
)

// PreviewCmd implements the 'preview' command: serve an archive locally and
// rebuild it whenever the catalog changes on disk.
type PreviewCmd struct {
	Catalog string `arg:"" help:"Path to the documentation catalog to watch." type:"path"`
	Output  string `short:"o" name:"output" help:"Archive directory to serve (defaults to a temp directory)."`
	Port    int    `short:"p" name:"port" default:"8000" help:"Preview server port."`

	FallbackDisplayName      string `name:"fallback-display-name" help:"Display name used when the catalog has no Info.plist value."`
	FallbackBundleIdentifier string `name:"fallback-bundle-identifier" help:"Bundle identifier used when the catalog has no Info.plist value."`

	HTMLTemplate string `name:"html-template" help:"Renderer template directory; enables the per-page HTML mirror." type:"path"`
	BatchSize    int    `name:"batch-size" default:"0" help:"Concurrent page conversions (0 uses the CPU count)."`

	Metrics bool `name:"metrics" help:"Expose Prometheus build metrics on /metrics."`

	EventsURL     string `name:"events-url" help:"Publish rebuild events to this NATS server."`
	EventsSubject string `name:"events-subject" default:"docarchive.preview.rebuild" help:"Subject for rebuild events."`

	FullRebuildEvery time.Duration `name:"full-rebuild-every" help:"Force a periodic full rebuild (0 disables)."`
}

func (p *PreviewCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	output := p.Output
	if output == "" {
		tmp, err := os.MkdirTemp("", "docarchive-preview-*")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		output = tmp
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewBuildMetrics(registry)

	rebuild := func(buildCtx context.Context) error {
		act := action.NewConvertAction(action.ConvertOptions{
			CatalogPath:         p.Catalog,
			OutputPath:          output,
			FallbackDisplayName: p.FallbackDisplayName,
			FallbackIdentifier:  p.FallbackBundleIdentifier,
			BatchSize:           p.BatchSize,
			Digests:             emit.DigestOptions{Diagnostics: true},
			TemplatePath:        p.HTMLTemplate,
			Diagnostics:         diagnostics.NewEngine(),
			Metrics:             metrics,
		})
		result, err := act.Perform(buildCtx)
		reportProblems(result.Problems)
		return err
	}

	// Build once before serving so the first request sees a full archive.
	if err := rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	var gatherer prometheus.Gatherer
	if p.Metrics {
		gatherer = registry
	}
	server, err := preview.NewServer(p.Port, output, gatherer)
	if err != nil {
		return err
	}

	var events *preview.EventPublisher
	if p.EventsURL != "" {
		events, err = preview.NewEventPublisher(p.EventsURL, p.EventsSubject)
		if err != nil {
			return err
		}
		defer events.Close()
	}

	slog.Info("Preview serving",
		slog.String("url", fmt.Sprintf("http://localhost:%d/", server.Port())),
		slog.String("catalog", p.Catalog),
		slog.String("archive", output))

	session := preview.NewSession(server, p.Catalog, rebuild, preview.SessionOptions{
		FullRebuildEvery: p.FullRebuildEvery,
		Events:           events,
		Metrics:          metrics,
	})
	return session.Run(ctx)
}
