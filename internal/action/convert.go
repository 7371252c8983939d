package action

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/catalog"
	"git.home.luguber.info/inful/docarchive/internal/convert"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/emit"
	"git.home.luguber.info/inful/docarchive/internal/logfields"
	"git.home.luguber.info/inful/docarchive/internal/navigator"
	"git.home.luguber.info/inful/docarchive/internal/observability"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
	"git.home.luguber.info/inful/docarchive/internal/resolver"
	"git.home.luguber.info/inful/docarchive/internal/statichosting"
)

// ConvertOptions configures a convert action.
type ConvertOptions struct {
	CatalogPath string
	OutputPath  string

	FallbackDisplayName string
	FallbackIdentifier  string

	BatchSize     int
	CoverageLevel convert.CoverageLevel
	Digests       emit.DigestOptions

	// TemplatePath is the renderer template directory. When non-empty the
	// template is installed at the archive root and every page gets an HTML
	// mirror.
	TemplatePath string
	// HostingBasePath additionally runs the static-hosting transform.
	HostingBasePath           string
	TransformForStaticHosting bool

	// ExternalResolvers delegate links into other catalogs.
	ExternalResolvers []resolver.ExternalResolver

	Diagnostics *diagnostics.Engine
	Metrics     *observability.BuildMetrics
}

// ConvertAction builds one archive from one catalog.
type ConvertAction struct {
	opts ConvertOptions
}

// NewConvertAction creates a convert action. A nil diagnostics engine gets a
// default one.
func NewConvertAction(opts ConvertOptions) *ConvertAction {
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostics.NewEngine()
	}
	return &ConvertAction{opts: opts}
}

// Perform runs the conversion. The diagnostics file is written even when the
// build fails, so a broken build still leaves its problem report behind.
func (a *ConvertAction) Perform(ctx context.Context) (Result, error) {
	result, err := a.perform(ctx)
	result.Problems = a.opts.Diagnostics.Problems()
	result.DidEncounterError = err != nil || a.opts.Diagnostics.DidEncounterError()

	if a.opts.Digests.Diagnostics {
		diagPath := filepath.Join(a.opts.OutputPath, archive.DiagnosticsFileName)
		if writeErr := diagnostics.WriteFile(diagPath, result.Problems); writeErr == nil {
			result.Outputs = append(result.Outputs, diagPath)
		}
	}
	return result, err
}

func (a *ConvertAction) perform(ctx context.Context) (Result, error) {
	var result Result
	start := time.Now()
	ctx = observability.WithBuildID(ctx, uuid.NewString())
	ctx = observability.WithStage(ctx, "convert")

	cat, err := catalog.Load(a.opts.CatalogPath, catalog.LoadOptions{
		FallbackDisplayName: a.opts.FallbackDisplayName,
		FallbackIdentifier:  a.opts.FallbackIdentifier,
	})
	if err != nil {
		return result, err
	}

	res := resolver.NewResolver(cat.Identifier)
	for _, ext := range a.opts.ExternalResolvers {
		res.RegisterExternalResolver(ext)
	}
	buildContext, err := convert.BuildContext(cat, res)
	if err != nil {
		return result, err
	}

	jsonWriter, err := emit.NewJSONWriter(a.opts.OutputPath)
	if err != nil {
		return result, err
	}
	defer jsonWriter.Close()

	navBuilder := navigator.NewBuilder()
	consumers := []convert.Consumer{
		jsonWriter,
		emit.NewDigestWriter(a.opts.OutputPath, a.opts.Digests),
		navigatorConsumer{navBuilder},
	}
	if a.opts.TemplatePath != "" {
		if err := emit.InstallTemplate(a.opts.OutputPath, a.opts.TemplatePath); err != nil {
			return result, err
		}
		htmlWriter, err := emit.NewHTMLWriter(a.opts.OutputPath, a.opts.TemplatePath)
		if err != nil {
			return result, err
		}
		consumers = append(consumers, htmlWriter)
	}

	engine := convert.NewEngine(buildContext, a.opts.Diagnostics, convert.EngineOptions{
		BatchSize:     a.opts.BatchSize,
		CoverageLevel: a.opts.CoverageLevel,
		Metrics:       a.opts.Metrics,
	})
	if _, err := engine.Convert(ctx, consumers...); err != nil {
		return result, err
	}

	tree, navProblems := navBuilder.Finalize()
	a.opts.Diagnostics.Emit(navProblems...)
	if err := navigator.Write(a.opts.OutputPath, tree, navigator.WriteOptions{EmitJSON: true, EmitDB: true}); err != nil {
		return result, err
	}

	if a.opts.TransformForStaticHosting {
		if err := statichosting.Transform(a.opts.OutputPath, statichosting.Options{
			BasePath: a.opts.HostingBasePath,
		}); err != nil {
			return result, err
		}
	}

	result.Outputs = append(result.Outputs, a.opts.OutputPath)
	observability.InfoContext(ctx, "Archive built",
		logfields.Bundle(cat.Identifier),
		logfields.Catalog(cat.DisplayName),
		logfields.Archive(a.opts.OutputPath),
		logfields.Duration(time.Since(start)))
	return result, nil
}

// navigatorConsumer adapts the navigator builder to the consumer contract.
type navigatorConsumer struct {
	builder *navigator.Builder
}

func (c navigatorConsumer) ConsumeRenderNode(_ reference.TopicReference, node *render.Node) error {
	c.builder.Index(node)
	return nil
}

func (c navigatorConsumer) ConsumeProblems([]diagnostics.Problem) error { return nil }
