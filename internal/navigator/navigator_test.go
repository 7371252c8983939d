package navigator

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docarchive/internal/render"
)

func symbolNode(path, title, symbolKind, usr string) *render.Node {
	return &render.Node{
		SchemaVersion: render.CurrentSchemaVersion,
		Identifier:    render.Identifier{URL: "doc://com.example" + path, InterfaceLanguage: "swift"},
		Kind:          render.KindSymbol,
		Metadata:      render.Metadata{Title: title, SymbolKind: symbolKind, ExternalID: usr},
	}
}

func articleNode(path, title string) *render.Node {
	return &render.Node{
		SchemaVersion: render.CurrentSchemaVersion,
		Identifier:    render.Identifier{URL: "doc://com.example" + path, InterfaceLanguage: "swift"},
		Kind:          render.KindArticle,
		Metadata:      render.Metadata{Title: title},
	}
}

// myKitNodes models a module with authored curation groups plus uncurated
// symbols the navigator must append in canonical order.
func myKitNodes() []*render.Node {
	module := symbolNode("/documentation/MyKit", "MyKit", "module", "")
	module.TopicSections = []render.TopicSection{
		{Title: "Basics", Identifiers: []string{
			"doc://com.example/documentation/MyKit/MyClass",
		}},
		{Title: "MyKit in Practice", Identifiers: []string{
			"doc://com.example/documentation/Getting-Started",
		}},
	}
	return []*render.Node{
		module,
		symbolNode("/documentation/MyKit/MyClass", "MyClass", "class", "s:MyClass"),
		symbolNode("/documentation/MyKit/MyProtocol", "MyProtocol", "protocol", "s:MyProtocol"),
		symbolNode("/documentation/MyKit/myFunction()", "myFunction()", "func", "s:myFunction"),
		articleNode("/documentation/Getting-Started", "Getting Started"),
	}
}

const myKitDump = `[Root]
  Swift
    MyKit
      Basics
        MyClass
      MyKit in Practice
        Getting Started
      MyProtocol
      myFunction()
`

func TestNavigatorTreeShape(t *testing.T) {
	b := NewBuilder()
	for _, n := range myKitNodes() {
		b.Index(n)
	}
	tree, problems := b.Finalize()
	assert.Empty(t, problems)
	assert.Equal(t, myKitDump, tree.Dump())

	// Authored groups keep authored order; uncurated structural children
	// follow in canonical order (protocol bucket before func bucket).
	swift := tree.Children[0]
	assert.Equal(t, uint64(1), swift.LanguageMask)
	mykit := swift.Children[0]
	assert.Equal(t, KindModule, mykit.Kind)
	assert.Equal(t, KindGroupMarker, mykit.Children[0].Kind)
	assert.Equal(t, KindGroupMarker, mykit.Children[1].Kind)
}

func TestNavigatorOrderInsensitive(t *testing.T) {
	nodes := myKitNodes()
	baseline := ""
	for trial := range 10 {
		shuffled := append([]*render.Node(nil), nodes...)
		rand.New(rand.NewSource(int64(trial))).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		b := NewBuilder()
		for _, n := range shuffled {
			b.Index(n)
		}
		tree, _ := b.Finalize()
		dump := tree.Dump()
		if baseline == "" {
			baseline = dump
		}
		require.Equal(t, baseline, dump, "trial %d", trial)
	}
	assert.Equal(t, myKitDump, baseline)
}

func TestNavigatorMissingCuratedPage(t *testing.T) {
	module := symbolNode("/documentation/MyKit", "MyKit", "module", "")
	module.TopicSections = []render.TopicSection{
		{Title: "Basics", Identifiers: []string{"doc://com.example/documentation/MyKit/Gone"}},
	}
	b := NewBuilder()
	b.Index(module)
	tree, problems := b.Finalize()

	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Diagnostic.Summary, "Gone")
	// The empty group is dropped, not emitted.
	mykit := tree.Children[0].Children[0]
	assert.Empty(t, mykit.Children)
}

func TestNavigatorSameTitledOverloadsOrderByUSR(t *testing.T) {
	b := NewBuilder()
	b.Index(symbolNode("/documentation/MyKit", "MyKit", "module", ""))
	b.Index(symbolNode("/documentation/MyKit/update(_:)-1abc", "update(_:)", "func", "s:update-b"))
	b.Index(symbolNode("/documentation/MyKit/update(_:)-2def", "update(_:)", "func", "s:update-a"))
	tree, _ := b.Finalize()

	mykit := tree.Children[0].Children[0]
	require.Len(t, mykit.Children, 2)
	assert.Equal(t, "s:update-a", mykit.Children[0].USR)
	assert.Equal(t, "s:update-b", mykit.Children[1].USR)
}

func TestNavigatorPersistenceRoundTrip(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder()
	for _, n := range myKitNodes() {
		b.Index(n)
	}
	tree, _ := b.Finalize()
	require.NoError(t, Write(root, tree, WriteOptions{EmitJSON: true, EmitDB: true}))

	fromJSON, err := ReadIndex(root)
	require.NoError(t, err)
	assert.Equal(t, tree.Dump(), fromJSON.Dump())

	fromDB, err := ReadDB(root)
	require.NoError(t, err)
	assert.Equal(t, tree.Dump(), fromDB.Dump())
	assert.Equal(t, tree.Count(), fromDB.Count())
}

func TestBuildFromArchiveMatchesDirectIndexing(t *testing.T) {
	root := t.TempDir()
	direct := NewBuilder()
	for _, n := range myKitNodes() {
		direct.Index(n)
		data, err := render.Encode(n)
		require.NoError(t, err)
		rel := "data/" + routeOf(pathOf(n.Identifier.URL)) + ".json"
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, data, 0o644))
	}
	directTree, _ := direct.Finalize()

	second, err := BuildFromArchive(root)
	require.NoError(t, err)
	secondTree, _ := second.Finalize()
	assert.Equal(t, directTree.Dump(), secondTree.Dump())
}
