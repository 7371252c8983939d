package convert

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
	"git.home.luguber.info/inful/docarchive/internal/resolver"
)

// Converter turns one entity into a render node. Stateless and safe for
// concurrent use; all mutable state lives in the resolver's caches and the
// diagnostics engine, both of which are concurrency-safe.
type Converter struct {
	buildContext *Context
	engine       *diagnostics.Engine
}

// NewConverter creates a converter over a build context.
func NewConverter(buildContext *Context, engine *diagnostics.Engine) *Converter {
	return &Converter{buildContext: buildContext, engine: engine}
}

// Convert produces the render node for one entity. Unresolved links become
// warning diagnostics and are dropped from the page; only an internally
// inconsistent node (a dangling reference in its own table) is an error.
func (c *Converter) Convert(ctx context.Context, entity Entity) (*render.Node, error) {
	node := &render.Node{
		SchemaVersion: render.CurrentSchemaVersion,
		Identifier: render.Identifier{
			URL:               entity.Reference.URL(),
			InterfaceLanguage: string(entity.Reference.SourceLanguage),
		},
		Kind:            kindFor(entity.Kind),
		Abstract:        entity.Abstract,
		Declaration:     entity.Declaration,
		References:      make(map[string]render.Reference),
		SourceLanguages: entity.Languages,
	}

	node.Metadata = render.Metadata{
		Title:      entity.Title,
		Role:       roleFor(entity.Kind),
		SymbolKind: entity.SymbolKind,
		Platforms:  entity.Platforms,
		Beta:       isBeta(entity.Platforms),
	}
	if entity.Module != "" {
		node.Metadata.Modules = []string{entity.Module}
	}
	if entity.USR != "" {
		node.Metadata.ExternalID = entity.USR
	}

	c.addTopicSections(ctx, entity, node)
	c.addAssetReferences(entity, node)
	c.addLandmarks(entity, node)

	if entity.Kind == EntityModule {
		c.curateModuleChildren(entity, node)
	}

	if err := render.Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}

// addTopicSections resolves each authored section's links and emits one
// topic section per section that resolved at least one link. Authored order
// is preserved within a section.
func (c *Converter) addTopicSections(ctx context.Context, entity Entity, node *render.Node) {
	for _, section := range entity.Sections {
		ts := render.TopicSection{Title: section.Heading}
		for _, link := range section.Links {
			resolved, err := c.buildContext.Resolver.Resolve(ctx, link, entity.Reference.SourceLanguage)
			if err != nil {
				c.reportUnresolved(entity, link, err)
				continue
			}
			c.addTopicReference(node, resolved)
			ts.Identifiers = append(ts.Identifiers, resolved.URL())
		}
		if len(ts.Identifiers) > 0 {
			node.TopicSections = append(node.TopicSections, ts)
		}
	}
}

// curateModuleChildren gives a module landing page without authored curation
// a default topic section listing every top-level symbol, sorted by title.
func (c *Converter) curateModuleChildren(entity Entity, node *render.Node) {
	if len(node.TopicSections) > 0 {
		return
	}
	var children []Entity
	for _, e := range c.buildContext.Entities {
		if e.Kind == EntitySymbol && e.Module == entity.Module &&
			strings.Count(e.Reference.Path, "/") == strings.Count(entity.Reference.Path, "/")+1 {
			children = append(children, e)
		}
	}
	if len(children) == 0 {
		return
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Title < children[j].Title })
	ts := render.TopicSection{Title: "Topics"}
	for _, child := range children {
		c.addTopicReference(node, child.Reference)
		ts.Identifiers = append(ts.Identifiers, child.Reference.URL())
	}
	node.TopicSections = append(node.TopicSections, ts)
}

func (c *Converter) addTopicReference(node *render.Node, resolved reference.TopicReference) {
	url := resolved.URL()
	if _, ok := node.References[url]; ok {
		return
	}

	ref := render.TopicRenderReference(url, resolved.LastPathComponent(), "/"+render.RoutePath(resolved))
	if target, ok := c.entityFor(resolved); ok {
		ref.Title = target.Title
		ref.Abstract = target.Abstract
		ref.Kind = string(kindFor(target.Kind))
		ref.Role = roleFor(target.Kind)
		ref.IsBeta = isBeta(target.Platforms)
		ref.Languages = target.Languages
	} else if info, ok := c.buildContext.Resolver.ExternalInformation(url); ok {
		ref = info.RenderReference(url)
	}
	node.References[url] = ref
}

func (c *Converter) addAssetReferences(entity Entity, node *render.Node) {
	for _, name := range entity.AssetLinks {
		asset, ok := c.buildContext.Assets[name]
		if !ok {
			c.reportUnresolved(entity, name, fmt.Errorf("no asset named %q in the catalog", name))
			continue
		}
		if _, dup := node.References[asset.Name]; dup {
			continue
		}
		node.References[asset.Name] = render.AssetRenderReference(asset.Kind, asset.Name, "/"+asset.ArchivePath)
	}
}

func (c *Converter) addLandmarks(entity Entity, node *render.Node) {
	for _, heading := range entity.Headings {
		node.Landmarks = append(node.Landmarks, render.Landmark{
			Title:  heading,
			Anchor: anchorFor(heading),
		})
	}
}

func (c *Converter) reportUnresolved(entity Entity, link string, err error) {
	severity := diagnostics.SeverityWarning
	var failure *resolver.ResolutionFailure
	if !errors.As(err, &failure) {
		// Transport and protocol errors are more serious than a bad link.
		severity = diagnostics.SeverityError
	}
	c.engine.Emit(diagnostics.Problem{Diagnostic: diagnostics.Diagnostic{
		Severity:   severity,
		Identifier: "org.swift.docc.unresolvedTopicReference",
		Summary:    fmt.Sprintf("Topic reference %q couldn't be resolved: %v", link, err),
		Source:     &diagnostics.SourceLocation{Path: entity.Reference.Path},
	}})
}

// isBeta applies the availability law: a page is beta exactly when every
// platform it is available on is beta, and it is available on at least one.
func isBeta(platforms []render.PlatformAvailability) bool {
	if len(platforms) == 0 {
		return false
	}
	for _, p := range platforms {
		if !p.IsBeta {
			return false
		}
	}
	return true
}

func (c *Converter) entityFor(ref reference.TopicReference) (Entity, bool) {
	for _, e := range c.buildContext.Entities {
		if e.Reference.Path == ref.Path && e.Reference.BundleIdentifier == ref.BundleIdentifier {
			return e, true
		}
	}
	return Entity{}, false
}

func kindFor(k EntityKind) render.Kind {
	switch k {
	case EntityTutorial:
		return render.KindTutorial
	case EntityArticle:
		return render.KindArticle
	default:
		return render.KindSymbol
	}
}

func roleFor(k EntityKind) string {
	switch k {
	case EntityModule:
		return "collection"
	case EntityArticle:
		return "article"
	case EntityTutorial:
		return "tutorial"
	default:
		return "symbol"
	}
}

func anchorFor(heading string) string {
	anchor := strings.ToLower(heading)
	anchor = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return '-'
		}
		return -1
	}, anchor)
	return anchor
}
