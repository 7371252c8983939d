// Package convert turns a loaded catalog into render nodes: a pure
// per-entity converter driven by a batch engine that preserves deterministic
// output under any degree of concurrency.
package convert

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docarchive/internal/catalog"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
	"git.home.luguber.info/inful/docarchive/internal/resolver"
)

// EntityKind classifies a documentation entity before conversion.
type EntityKind string

const (
	EntityModule   EntityKind = "module"
	EntitySymbol   EntityKind = "symbol"
	EntityArticle  EntityKind = "article"
	EntityTutorial EntityKind = "tutorial"
)

// Entity is the resolved semantic content for one reference. Immutable after
// context construction.
type Entity struct {
	Reference     reference.TopicReference
	Kind          EntityKind
	Title         string
	Abstract      string
	USR           string
	SymbolKind    string
	Module        string
	Platforms     []render.PlatformAvailability
	Declaration   []render.DeclarationFragment
	Headings      []string
	Sections      []catalog.ArticleSection
	AssetLinks    []string
	IndexableText string
	Languages     []string
}

// Asset is a media file the catalog provides, namespaced by catalog
// identifier in the output archive.
type Asset struct {
	Name        string // reference name authored in markdown, e.g. "figure1"
	Kind        render.ReferenceType
	SourcePath  string // absolute input path
	ArchivePath string // e.g. images/org.swift.docc.example/figure1.png
}

// Context is the read-only build context shared by all conversion workers:
// the catalog, its entities in deterministic order, the asset table and the
// reference resolver.
type Context struct {
	Catalog  *catalog.Catalog
	Resolver *resolver.Resolver
	Entities []Entity
	Assets   map[string]Asset // keyed by authored name
}

// BuildContext loads symbol graphs, scans articles and tutorials, registers
// every entity with the resolver and returns the immutable build context.
func BuildContext(cat *catalog.Catalog, res *resolver.Resolver) (*Context, error) {
	ctx := &Context{
		Catalog:  cat,
		Resolver: res,
		Assets:   make(map[string]Asset),
	}

	articles := make(map[string]catalog.Article) // title -> scanned article
	for _, doc := range cat.DocumentsOfKind(catalog.DocumentArticle) {
		source, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal,
				fmt.Sprintf("read article %s", doc.RelativePath))
		}
		article := catalog.ScanArticle(source)
		if article.Title == "" {
			article.Title = doc.Name
		}
		articles[strings.Trim(article.Title, "`")] = article
	}

	modulesSeen := map[string]bool{}
	for _, doc := range cat.DocumentsOfKind(catalog.DocumentSymbolGraph) {
		graph, err := catalog.ReadSymbolGraph(doc.Path)
		if err != nil {
			return nil, err
		}
		ctx.addGraph(graph, articles, modulesSeen)
	}

	// Articles that are not module extension pages become standalone pages.
	for title, article := range articles {
		if modulesSeen[title] {
			continue
		}
		ctx.addArticle(title, article)
	}

	for _, doc := range cat.DocumentsOfKind(catalog.DocumentTutorial) {
		ctx.addTutorial(doc)
	}

	for _, doc := range cat.DocumentsOfKind(catalog.DocumentAsset) {
		ctx.addAsset(doc)
	}

	// Deterministic entity order regardless of graph and map iteration.
	sort.Slice(ctx.Entities, func(i, j int) bool {
		return ctx.Entities[i].Reference.URL() < ctx.Entities[j].Reference.URL()
	})
	for _, e := range ctx.Entities {
		res.RegisterEntity(e.Reference)
	}
	return ctx, nil
}

// addGraph synthesizes the module landing page entity and one entity per
// symbol. A markdown article whose title names the module enriches the
// landing page; the synthesized entity is otherwise indistinguishable from
// an authored one.
func (c *Context) addGraph(graph *catalog.SymbolGraph, articles map[string]catalog.Article, modulesSeen map[string]bool) {
	moduleName := graph.Module.Name
	moduleRef := reference.NewTopicReference(c.Catalog.Identifier, "/documentation/"+moduleName, reference.LanguageSwift)

	langs := map[string]bool{}
	for _, sym := range graph.Symbols {
		lang := sym.Identifier.InterfaceLanguage
		if lang == "" {
			lang = string(reference.LanguageSwift)
		}
		langs[lang] = true
	}

	if !modulesSeen[moduleName] {
		modulesSeen[moduleName] = true
		module := Entity{
			Reference:  moduleRef,
			Kind:       EntityModule,
			Title:      moduleName,
			Module:     moduleName,
			SymbolKind: "module",
			Languages:  sortedKeys(langs),
		}
		if article, ok := articles[moduleName]; ok {
			module.Abstract = article.Abstract
			module.Headings = article.Headings
			module.Sections = article.Sections
			module.AssetLinks = article.AssetLinks
			module.IndexableText = article.IndexableText
		}
		c.Entities = append(c.Entities, module)
	}

	for _, sym := range graph.Symbols {
		lang := reference.SourceLanguage(sym.Identifier.InterfaceLanguage)
		if lang == "" {
			lang = reference.LanguageSwift
		}
		ref := reference.NewTopicReference(c.Catalog.Identifier,
			"/documentation/"+moduleName+"/"+strings.Join(sym.PathComponents, "/"), lang)

		var platforms []render.PlatformAvailability
		for _, avail := range sym.Availability {
			p := render.PlatformAvailability{Name: avail.Domain, IsBeta: avail.IsBeta}
			if avail.Introduced != nil {
				p.Introduced = fmt.Sprintf("%d.%d", avail.Introduced.Major, avail.Introduced.Minor)
			}
			platforms = append(platforms, p)
		}
		var declaration []render.DeclarationFragment
		for _, frag := range sym.DeclarationFragments {
			declaration = append(declaration, render.DeclarationFragment{Kind: frag.Kind, Spelling: frag.Spelling})
		}

		c.Entities = append(c.Entities, Entity{
			Reference:     ref,
			Kind:          EntitySymbol,
			Title:         sym.Names.Title,
			Abstract:      sym.AbstractText(),
			USR:           sym.Identifier.Precise,
			SymbolKind:    strings.TrimPrefix(sym.Kind.Identifier, string(lang)+"."),
			Module:        moduleName,
			Platforms:     platforms,
			Declaration:   declaration,
			IndexableText: sym.Names.Title + " " + sym.AbstractText(),
			Languages:     []string{string(lang)},
		})
	}
}

func (c *Context) addArticle(title string, article catalog.Article) {
	slug := strings.ReplaceAll(title, " ", "-")
	ref := reference.NewTopicReference(c.Catalog.Identifier, "/documentation/"+slug, reference.LanguageSwift)
	c.Entities = append(c.Entities, Entity{
		Reference:     ref,
		Kind:          EntityArticle,
		Title:         title,
		Abstract:      article.Abstract,
		Headings:      article.Headings,
		Sections:      article.Sections,
		AssetLinks:    article.AssetLinks,
		IndexableText: article.IndexableText,
		Languages:     []string{string(reference.LanguageSwift)},
	})
}

func (c *Context) addTutorial(doc catalog.Document) {
	slug := strings.ReplaceAll(doc.Name, " ", "-")
	ref := reference.NewTopicReference(c.Catalog.Identifier, "/tutorials/"+slug, reference.LanguageSwift)
	c.Entities = append(c.Entities, Entity{
		Reference:     ref,
		Kind:          EntityTutorial,
		Title:         doc.Name,
		IndexableText: doc.Name,
		Languages:     []string{string(reference.LanguageSwift)},
	})
}

func (c *Context) addAsset(doc catalog.Document) {
	kind := assetKind(doc.RelativePath)
	dir := map[render.ReferenceType]string{
		render.ReferenceTypeImage:    "images",
		render.ReferenceTypeVideo:    "videos",
		render.ReferenceTypeDownload: "downloads",
	}[kind]
	c.Assets[doc.Name] = Asset{
		Name:        doc.Name,
		Kind:        kind,
		SourcePath:  doc.Path,
		ArchivePath: path.Join(dir, c.Catalog.Identifier, path.Base(doc.RelativePath)),
	}
}

func assetKind(relPath string) render.ReferenceType {
	switch strings.ToLower(path.Ext(relPath)) {
	case ".mp4", ".mov", ".webm":
		return render.ReferenceTypeVideo
	case ".zip", ".tar", ".gz":
		return render.ReferenceTypeDownload
	default:
		return render.ReferenceTypeImage
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SymbolPageCount returns the number of entities that render as symbol
// pages; documentation coverage emits exactly one entry per such page.
func (c *Context) SymbolPageCount() int {
	count := 0
	for _, e := range c.Entities {
		if e.Kind == EntityModule || e.Kind == EntitySymbol {
			count++
		}
	}
	return count
}
