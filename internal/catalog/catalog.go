// Package catalog discovers a documentation catalog's on-disk layout and
// produces an ordered set of input documents plus identifying metadata.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// DocumentKind classifies a discovered input document.
type DocumentKind string

const (
	DocumentArticle     DocumentKind = "article"
	DocumentTutorial    DocumentKind = "tutorial"
	DocumentSymbolGraph DocumentKind = "symbol-graph"
	DocumentAsset       DocumentKind = "asset"
)

// Document is one discovered input file.
type Document struct {
	Path         string // absolute path
	RelativePath string // path relative to the catalog root
	Kind         DocumentKind
	Name         string // file name without extension
}

// Catalog is a loaded documentation catalog. Immutable once loaded for a
// given build.
type Catalog struct {
	Identifier  string
	DisplayName string
	Root        string
	Info        Info
	Documents   []Document
}

// Load discovers the catalog rooted at the given directory.
func Load(root string, opts LoadOptions) (*Catalog, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal, "resolve catalog root")
	}
	if st, err := os.Stat(absRoot); err != nil || !st.IsDir() {
		return nil, archerr.CatalogError(fmt.Sprintf("catalog not found or not a directory: %s", absRoot))
	}

	info, err := readInfo(absRoot, opts)
	if err != nil {
		return nil, err
	}

	docs, err := discover(absRoot, info.Ignore)
	if err != nil {
		return nil, err
	}

	slog.Info("Catalog loaded",
		slog.String("identifier", info.Identifier),
		slog.String("display_name", info.DisplayName),
		slog.Int("documents", len(docs)))

	return &Catalog{
		Identifier:  info.Identifier,
		DisplayName: info.DisplayName,
		Root:        absRoot,
		Info:        info,
		Documents:   docs,
	}, nil
}

// discover walks the catalog tree and classifies input files. The result is
// sorted by relative path so catalog loading is deterministic regardless of
// directory iteration order.
func discover(root string, ignoreGlobs []string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, glob := range ignoreGlobs {
			if ok, _ := doublestar.Match(glob, rel); ok {
				slog.Debug("Ignoring catalog file", slog.String("file", rel), slog.String("glob", glob))
				return nil
			}
		}

		kind, ok := classify(name)
		if !ok {
			return nil
		}

		docs = append(docs, Document{
			Path:         path,
			RelativePath: rel,
			Kind:         kind,
			Name:         strings.TrimSuffix(name, filepath.Ext(name)),
		})
		return nil
	})
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal, "walk catalog directory")
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	return docs, nil
}

// classify maps a file name to a document kind. The catalog metadata file
// itself is not an input document.
func classify(name string) (DocumentKind, bool) {
	if name == InfoFileName {
		return "", false
	}
	if strings.HasSuffix(name, ".symbols.json") {
		return DocumentSymbolGraph, true
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return DocumentArticle, true
	case ".tutorial":
		return DocumentTutorial, true
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
		".mp4", ".mov", ".webm",
		".zip", ".tar", ".gz":
		return DocumentAsset, true
	}
	return "", false
}

// DocumentsOfKind filters the catalog's documents by kind, preserving order.
func (c *Catalog) DocumentsOfKind(kind DocumentKind) []Document {
	var out []Document
	for _, d := range c.Documents {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
