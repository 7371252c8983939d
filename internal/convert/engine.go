package convert

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/logfields"
	"git.home.luguber.info/inful/docarchive/internal/observability"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

// EngineOptions configures one conversion run.
type EngineOptions struct {
	// BatchSize caps the number of entities converted concurrently. Zero
	// selects one worker per CPU. Output is byte-identical for every batch
	// size.
	BatchSize int

	CoverageLevel CoverageLevel

	// Metrics is optional; a nil value disables instrumentation.
	Metrics *observability.BuildMetrics
}

// Result summarizes a finished conversion run.
type Result struct {
	Pages    int
	Duration time.Duration
}

// entityConverter produces the render node for one entity.
type entityConverter interface {
	Convert(ctx context.Context, entity Entity) (*render.Node, error)
}

// Engine converts every entity of a build context and streams the output to
// consumers. Workers convert concurrently; consumer delivery happens on the
// calling goroutine in deterministic entity order once conversion finishes.
type Engine struct {
	buildContext *Context
	converter    entityConverter
	diags        *diagnostics.Engine
	opts         EngineOptions
}

// NewEngine creates a conversion engine.
func NewEngine(buildContext *Context, diags *diagnostics.Engine, opts EngineOptions) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = runtime.NumCPU()
	}
	return &Engine{
		buildContext: buildContext,
		converter:    NewConverter(buildContext, diags),
		diags:        diags,
		opts:         opts,
	}
}

// Convert runs the full conversion. Cancellation is honored between
// entities: a cancelled run delivers nothing to consumers and returns the
// context's error.
func (e *Engine) Convert(ctx context.Context, consumers ...Consumer) (Result, error) {
	start := time.Now()
	entities := e.buildContext.Entities
	nodes := make([]*render.Node, len(entities))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.BatchSize)
	for i := range entities {
		group.Go(func() error {
			// Check between entities so cancellation never leaves a
			// half-written archive behind.
			if err := groupCtx.Err(); err != nil {
				return err
			}
			node, err := e.converter.Convert(groupCtx, entities[i])
			if err != nil {
				// A failed entity becomes a problem, not a failed run;
				// its slot stays nil and the batch keeps converting.
				if e.opts.Metrics != nil {
					e.opts.Metrics.ConversionFailures.Inc()
				}
				e.diags.Emit(diagnostics.NewProblem(diagnostics.SeverityError,
					"org.swift.docc.unableToConvertEntity",
					fmt.Sprintf("Unable to convert %s: %v", entities[i].Reference.URL(), err)))
				return nil
			}
			nodes[i] = node
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}

	converted := make([]Entity, 0, len(entities))
	convertedNodes := make([]*render.Node, 0, len(entities))
	for i := range entities {
		if nodes[i] != nil {
			converted = append(converted, entities[i])
			convertedNodes = append(convertedNodes, nodes[i])
		}
	}

	// Delivery is sequential and ordered: per-page calls first, in entity
	// order, then the bundle-level calls.
	for i, entity := range converted {
		for _, consumer := range consumers {
			if err := consumer.ConsumeRenderNode(entity.Reference, convertedNodes[i]); err != nil {
				return Result{}, err
			}
		}
		if e.opts.Metrics != nil {
			e.opts.Metrics.PagesConverted.Inc()
		}
	}

	if err := e.deliverBundleOutputs(converted, convertedNodes, consumers); err != nil {
		return Result{}, err
	}

	problems := e.diags.Problems()
	for _, consumer := range consumers {
		if err := consumer.ConsumeProblems(problems); err != nil {
			return Result{}, err
		}
	}

	result := Result{Pages: len(converted), Duration: time.Since(start)}
	if e.opts.Metrics != nil {
		e.opts.Metrics.ConversionSeconds.Observe(result.Duration.Seconds())
		e.opts.Metrics.ConversionsTotal.Inc()
	}
	slog.Info("Conversion finished",
		logfields.Pages(result.Pages),
		logfields.BatchSize(e.opts.BatchSize),
		logfields.Duration(result.Duration))
	return result, nil
}

func (e *Engine) deliverBundleOutputs(entities []Entity, nodes []*render.Node, consumers []Consumer) error {
	assets := e.sortedAssets()
	linkable := e.linkableEntities(entities)
	records := e.indexingRecords(entities)
	coverage := e.coverage(entities, nodes)

	for _, consumer := range consumers {
		if c, ok := consumer.(AssetConsumer); ok {
			if err := c.ConsumeAssets(assets); err != nil {
				return err
			}
		}
		if c, ok := consumer.(LinkableEntityConsumer); ok {
			if err := c.ConsumeLinkableEntities(linkable); err != nil {
				return err
			}
		}
		if c, ok := consumer.(IndexingConsumer); ok {
			if err := c.ConsumeIndexingRecords(records); err != nil {
				return err
			}
		}
		if c, ok := consumer.(CoverageConsumer); ok && e.opts.CoverageLevel != CoverageNone {
			if err := c.ConsumeCoverage(coverage); err != nil {
				return err
			}
		}
		if c, ok := consumer.(MetadataConsumer); ok {
			metadata := BuildMetadata{
				BundleIdentifier:  e.buildContext.Catalog.Identifier,
				BundleDisplayName: e.buildContext.Catalog.DisplayName,
				SchemaVersion:     render.CurrentSchemaVersion,
			}
			if err := c.ConsumeBuildMetadata(metadata); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) sortedAssets() []Asset {
	assets := make([]Asset, 0, len(e.buildContext.Assets))
	for _, a := range e.buildContext.Assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ArchivePath < assets[j].ArchivePath })
	return assets
}

func (e *Engine) linkableEntities(entities []Entity) []LinkableEntity {
	out := make([]LinkableEntity, 0, len(entities))
	for _, entity := range entities {
		out = append(out, LinkableEntity{
			ReferenceURL: entity.Reference.URL(),
			Title:        entity.Title,
			Kind:         string(kindFor(entity.Kind)),
			Path:         "/" + render.RoutePath(entity.Reference),
			USR:          entity.USR,
			Language:     string(entity.Reference.SourceLanguage),
			Availability: entity.Languages,
		})
	}
	return out
}

func (e *Engine) indexingRecords(entities []Entity) []IndexingRecord {
	out := make([]IndexingRecord, 0, len(entities))
	for _, entity := range entities {
		out = append(out, IndexingRecord{
			Kind:                    string(kindFor(entity.Kind)),
			Location:                "/" + render.RoutePath(entity.Reference),
			Title:                   entity.Title,
			Summary:                 entity.Abstract,
			Headings:                entity.Headings,
			RawIndexableTextContent: entity.IndexableText,
		})
	}
	return out
}

// coverage emits exactly one entry per symbol page at both collecting
// levels; the level changes entry richness, never entry count.
func (e *Engine) coverage(entities []Entity, nodes []*render.Node) CoverageInfo {
	info := CoverageInfo{Level: e.opts.CoverageLevel}
	if e.opts.CoverageLevel == CoverageNone {
		return info
	}
	for i, entity := range entities {
		if entity.Kind != EntityModule && entity.Kind != EntitySymbol {
			continue
		}
		entry := coverageEntry(e.opts.CoverageLevel, entity, nodes[i])
		info.Entries = append(info.Entries, entry)
		info.Totals.Pages++
		if entry.IsDocumented {
			info.Totals.Documented++
		}
	}
	return info
}
