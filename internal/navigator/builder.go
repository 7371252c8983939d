package navigator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
	"git.home.luguber.info/inful/docarchive/internal/util/sets"
)

// page is the navigator's projection of one render node.
type page struct {
	url      string
	path     string // reference path, case preserved
	title    string
	language reference.SourceLanguage
	kind     NodeKind
	symbol   string
	usr      string
	beta     bool
	sections []render.TopicSection
}

// Builder accumulates pages and assembles the navigator tree. Index may be
// called from any goroutine in any order; the finalized tree depends only
// on the set of indexed pages, never on indexing order.
type Builder struct {
	mu    sync.Mutex
	pages map[string]*page // by reference URL
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{pages: make(map[string]*page)}
}

// Index adds one render node to the navigator.
func (b *Builder) Index(node *render.Node) {
	p := &page{
		url:      node.Identifier.URL,
		path:     pathOf(node.Identifier.URL),
		title:    node.Metadata.Title,
		language: reference.SourceLanguage(node.Identifier.InterfaceLanguage),
		kind:     nodeKind(node),
		symbol:   node.Metadata.SymbolKind,
		usr:      node.Metadata.ExternalID,
		beta:     node.Metadata.Beta,
		sections: node.TopicSections,
	}
	b.mu.Lock()
	b.pages[p.url] = p
	b.mu.Unlock()
}

// Finalize assembles the tree. Problems cover curation that points at pages
// the build never produced; they are warnings, never failures.
func (b *Builder) Finalize() (*Node, []diagnostics.Problem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var problems []diagnostics.Problem
	root := &Node{Title: "[Root]", Kind: KindRoot}

	langs := map[reference.SourceLanguage][]*page{}
	for _, p := range b.pages {
		langs[p.language] = append(langs[p.language], p)
	}
	var langKeys []reference.SourceLanguage
	for lang := range langs {
		langKeys = append(langKeys, lang)
	}
	sort.Slice(langKeys, func(i, j int) bool { return langKeys[i] < langKeys[j] })

	for _, lang := range langKeys {
		langNode := &Node{
			Title:        lang.DisplayName(),
			Kind:         KindLanguage,
			LanguageMask: lang.Mask(),
		}
		curated := sets.New[string]()
		for _, p := range langs[lang] {
			for _, section := range p.sections {
				for _, id := range section.Identifiers {
					curated.Add(id)
				}
			}
		}
		stack := sets.New[string]()
		for _, p := range topLevel(langs[lang], curated) {
			langNode.Children = append(langNode.Children, b.buildNode(p, langs[lang], curated, stack, &problems))
		}
		sortSiblings(langNode.Children)
		root.Children = append(root.Children, langNode)
	}
	return root, problems
}

// buildNode creates the subtree for one page. Authored topic sections become
// group markers whose children keep authored order; structural children the
// author never curated follow, in canonical order.
func (b *Builder) buildNode(p *page, all []*page, curated, stack sets.Set[string], problems *[]diagnostics.Problem) *Node {
	node := &Node{
		Title:        p.title,
		Path:         "/" + routeOf(p.path),
		Kind:         p.kind,
		SymbolKind:   p.symbol,
		LanguageMask: p.language.Mask(),
		USR:          p.usr,
		Beta:         p.beta,
	}

	// Cyclic curation terminates at the repeated page.
	if stack.Has(p.url) {
		return node
	}
	stack.Add(p.url)
	defer stack.Delete(p.url)

	for _, section := range p.sections {
		group := &Node{Title: section.Title, Kind: KindGroupMarker, LanguageMask: p.language.Mask()}
		for _, id := range section.Identifiers {
			child, ok := b.pages[id]
			if !ok {
				*problems = append(*problems, diagnostics.NewProblem(diagnostics.SeverityWarning,
					"org.swift.docc.navigator.missingCuratedPage",
					fmt.Sprintf("Curated page %q was not produced by this build", id)))
				continue
			}
			group.Children = append(group.Children, b.buildNode(child, all, curated, stack, problems))
		}
		if len(group.Children) > 0 {
			node.Children = append(node.Children, group)
		}
	}

	var structural []*Node
	for _, candidate := range all {
		if candidate == p || curated.Has(candidate.url) {
			continue
		}
		if isDirectChild(p.path, candidate.path) {
			structural = append(structural, b.buildNode(candidate, all, curated, stack, problems))
		}
	}
	sortSiblings(structural)
	node.Children = append(node.Children, structural...)
	return node
}

// topLevel picks the pages with no parent page among the indexed set and no
// curation anywhere, sorted by path so tree assembly iterates
// deterministically. A curated page appears where its curator placed it,
// never a second time at the root.
func topLevel(pages []*page, curated sets.Set[string]) []*page {
	byPath := sets.New[string]()
	for _, p := range pages {
		byPath.Add(p.path)
	}
	var top []*page
	for _, p := range pages {
		if curated.Has(p.url) {
			continue
		}
		parent := p.path[:strings.LastIndex(p.path, "/")]
		if !byPath.Has(parent) {
			top = append(top, p)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].path < top[j].path })
	return top
}

func isDirectChild(parent, candidate string) bool {
	if !strings.HasPrefix(candidate, parent+"/") {
		return false
	}
	return !strings.Contains(candidate[len(parent)+1:], "/")
}

func nodeKind(node *render.Node) NodeKind {
	switch node.Kind {
	case render.KindArticle:
		return KindArticle
	case render.KindTutorial:
		return KindTutorial
	}
	if node.Metadata.SymbolKind == "module" {
		return KindModule
	}
	return KindSymbol
}

// pathOf strips the doc://bundle prefix off a reference URL.
func pathOf(url string) string {
	rest := strings.TrimPrefix(url, "doc://")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[idx:]
	}
	return "/"
}

func routeOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(path, "/"))
}

// BuildFromArchive indexes every render JSON file in a built archive. The
// standalone index action uses this second pass; its output is identical to
// indexing during conversion.
func BuildFromArchive(root string) (*Builder, error) {
	b := NewBuilder()
	dataRoot := filepath.Join(root, archive.DataDir)

	err := filepath.WalkDir(dataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		node, err := render.Decode(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		b.Index(node)
		return nil
	})
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "index archive data")
	}
	return b, nil
}
