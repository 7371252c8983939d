package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCatalog(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "catalog.yaml", "identifier: org.swift.docc.example\ndisplay_name: MyKit\n")
	writeFile(t, root, "MyKit.md", "# ``MyKit``\n\nA framework.\n")
	writeFile(t, root, "mykit.symbols.json", `{"module":{"name":"MyKit"},"symbols":[]}`)
	writeFile(t, root, "Tutorials/Getting Started.tutorial", "intro")
	writeFile(t, root, "images/figure1.png", "png")
	writeFile(t, root, ".hidden/ignored.md", "hidden")
	writeFile(t, root, "notes.txt", "not an input")

	cat, err := Load(root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "org.swift.docc.example", cat.Identifier)
	assert.Equal(t, "MyKit", cat.DisplayName)

	var rels []string
	for _, d := range cat.Documents {
		rels = append(rels, d.RelativePath)
	}
	// Sorted by relative path; hidden files and unknown extensions excluded.
	assert.Equal(t, []string{
		"MyKit.md",
		"Tutorials/Getting Started.tutorial",
		"images/figure1.png",
		"mykit.symbols.json",
	}, rels)

	assert.Len(t, cat.DocumentsOfKind(DocumentArticle), 1)
	assert.Len(t, cat.DocumentsOfKind(DocumentSymbolGraph), 1)
	assert.Len(t, cat.DocumentsOfKind(DocumentTutorial), 1)
	assert.Len(t, cat.DocumentsOfKind(DocumentAsset), 1)
}

func TestLoadCatalogMissingDisplayName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "catalog.yaml", "identifier: org.swift.docc.example\n")

	_, err := Load(root, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display name")
	assert.Contains(t, err.Error(), "--fallback-display-name")

	cat, err := Load(root, LoadOptions{FallbackDisplayName: "Fallback"})
	require.NoError(t, err)
	assert.Equal(t, "Fallback", cat.DisplayName)
}

func TestLoadCatalogMissingInfoFileUsesFallbacks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Intro.md", "# Intro\n")

	_, err := Load(root, LoadOptions{})
	require.Error(t, err)

	cat, err := Load(root, LoadOptions{FallbackDisplayName: "Things", FallbackIdentifier: "com.example.things"})
	require.NoError(t, err)
	assert.Equal(t, "com.example.things", cat.Identifier)
}

func TestIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "catalog.yaml", "identifier: i\ndisplay_name: D\nignore:\n  - \"drafts/**\"\n")
	writeFile(t, root, "Keep.md", "# Keep\n")
	writeFile(t, root, "drafts/WIP.md", "# WIP\n")

	cat, err := Load(root, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, cat.Documents, 1)
	assert.Equal(t, "Keep.md", cat.Documents[0].RelativePath)
}

func TestScanArticle(t *testing.T) {
	source := []byte(`# My Article

The abstract paragraph describing the article.

## First Section

Body text with a [link](doc://org.swift.docc.example/documentation/MyKit) and
an inline <doc:MyKit/MyClass> mention.

![A figure](figure1)

## Second Section

More text.
`)
	article := ScanArticle(source)
	assert.Equal(t, "My Article", article.Title)
	assert.Equal(t, "The abstract paragraph describing the article.", article.Abstract)
	assert.Equal(t, []string{"First Section", "Second Section"}, article.Headings)
	assert.Equal(t, []string{"doc://org.swift.docc.example/documentation/MyKit", "doc:MyKit/MyClass"}, article.TopicLinks)
	require.Len(t, article.Sections, 2)
	assert.Equal(t, "First Section", article.Sections[0].Heading)
	assert.Equal(t, article.TopicLinks, article.Sections[0].Links)
	assert.Empty(t, article.Sections[1].Links)
	assert.Equal(t, []string{"figure1"}, article.AssetLinks)
	assert.Contains(t, article.IndexableText, "My Article")
	assert.Contains(t, article.IndexableText, "More text.")
}

func TestReadSymbolGraph(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mykit.symbols.json", `{
	  "module": {"name": "MyKit"},
	  "symbols": [
	    {
	      "identifier": {"precise": "s:5MyKit7MyClassC", "interfaceLanguage": "swift"},
	      "names": {"title": "MyClass"},
	      "kind": {"identifier": "swift.class", "displayName": "Class"},
	      "pathComponents": ["MyClass"],
	      "availability": [{"domain": "macOS", "isBeta": true}],
	      "docComment": {"lines": [{"text": "MyClass abstract."}]}
	    }
	  ]
	}`)

	graph, err := ReadSymbolGraph(filepath.Join(root, "mykit.symbols.json"))
	require.NoError(t, err)
	assert.Equal(t, "MyKit", graph.Module.Name)
	require.Len(t, graph.Symbols, 1)
	sym := graph.Symbols[0]
	assert.Equal(t, "s:5MyKit7MyClassC", sym.Identifier.Precise)
	assert.Equal(t, "MyClass abstract.", sym.AbstractText())
	assert.True(t, sym.Availability[0].IsBeta)
}

func TestMalformedCatalogYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "catalog.yaml", "identifier: [unclosed\n")
	_, err := Load(root, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
