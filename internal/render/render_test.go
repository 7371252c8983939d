package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docarchive/internal/reference"
)

func TestRoutePathIsLowercased(t *testing.T) {
	ref := reference.NewTopicReference("org.swift.docc.example", "/documentation/MyKit/MyClass", reference.LanguageSwift)
	assert.Equal(t, "documentation/mykit/myclass", RoutePath(ref))
	assert.Equal(t, "data/documentation/mykit/myclass.json", DataFilePath(ref))
}

func TestEncodeIsDeterministic(t *testing.T) {
	build := func() *Node {
		node := &Node{
			SchemaVersion: CurrentSchemaVersion,
			Identifier:    Identifier{URL: "doc://org.swift.docc.example/documentation/MyKit", InterfaceLanguage: "swift"},
			Kind:          KindSymbol,
			Metadata:      Metadata{Title: "MyKit", Role: "collection"},
			References:    map[string]Reference{},
		}
		// Insert references in varying order; serialized order must not change.
		node.References["doc://e/b"] = TopicRenderReference("doc://e/b", "B", "/documentation/e/b")
		node.References["doc://e/a"] = TopicRenderReference("doc://e/a", "A", "/documentation/e/a")
		node.References["doc://e/c"] = TopicRenderReference("doc://e/c", "C", "/documentation/e/c")
		return node
	}

	first, err := Encode(build())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(build())
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	decoded, err := Decode(first)
	require.NoError(t, err)
	assert.Equal(t, KindSymbol, decoded.Kind)
	assert.Len(t, decoded.References, 3)
}

func TestValidateAcceptsCompleteReferencesTable(t *testing.T) {
	node := &Node{
		Identifier: Identifier{URL: "doc://e/documentation/mykit"},
		TopicSections: []TopicSection{
			{Title: "Basics", Identifiers: []string{"doc://e/documentation/mykit/myclass"}},
		},
		References: map[string]Reference{
			"doc://e/documentation/mykit/myclass": TopicRenderReference("doc://e/documentation/mykit/myclass", "MyClass", ""),
		},
	}
	assert.NoError(t, Validate(node))
}

func TestValidateReportsDanglingReferences(t *testing.T) {
	node := &Node{
		Identifier: Identifier{URL: "doc://e/documentation/mykit"},
		TopicSections: []TopicSection{
			{Identifiers: []string{"doc://e/missing-b", "doc://e/missing-a"}},
		},
		PrimaryContent: []ContentSection{
			{References: []string{"doc://e/missing-c"}},
		},
	}

	err := Validate(node)
	require.Error(t, err)
	var dangling *DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	// Deterministically sorted regardless of map iteration order.
	assert.Equal(t, []string{"doc://e/missing-a", "doc://e/missing-b", "doc://e/missing-c"}, dangling.Identifiers)
}
