package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicReferenceURL(t *testing.T) {
	ref := NewTopicReference("org.swift.docc.example", "documentation/MyKit", LanguageSwift)
	assert.Equal(t, "/documentation/MyKit", ref.Path)
	assert.Equal(t, "doc://org.swift.docc.example/documentation/MyKit", ref.URL())
}

func TestPathNormalization(t *testing.T) {
	cases := map[string]string{
		"documentation/MyKit":    "/documentation/MyKit",
		"/documentation/MyKit/":  "/documentation/MyKit",
		"//documentation//MyKit": "/documentation/MyKit",
	}
	for in, want := range cases {
		assert.Equal(t, want, NewTopicReference("id", in, LanguageSwift).Path, "input %q", in)
	}
}

func TestPathMatchingIsCaseSensitive(t *testing.T) {
	a := NewTopicReference("id", "/documentation/MyKit", LanguageSwift)
	b := NewTopicReference("id", "/documentation/mykit", LanguageSwift)
	assert.NotEqual(t, a, b)
}

func TestAppendingPath(t *testing.T) {
	ref := NewTopicReference("id", "/documentation/MyKit", LanguageSwift)
	child := ref.AppendingPath("MyClass")
	assert.Equal(t, "/documentation/MyKit/MyClass", child.Path)
	assert.Equal(t, "MyClass", child.LastPathComponent())
}

func TestLanguageMasksAreDistinct(t *testing.T) {
	assert.Equal(t, uint64(1), LanguageSwift.Mask())
	assert.Equal(t, uint64(2), LanguageObjectiveC.Mask())
	assert.Equal(t, uint64(4), LanguageData.Mask())
}

func TestCacheCountsDistinctReferences(t *testing.T) {
	cache := NewCache()
	ref := NewTopicReference("org.swift.docc.example", "/documentation/MyKit", LanguageSwift)

	// Resolving through different authored spellings stores the same
	// canonical reference, so the cache does not grow.
	cache.Store(ref)
	cache.Store(ref)
	cache.Store(NewTopicReference("org.swift.docc.example", "documentation/MyKit/", LanguageSwift))
	assert.Equal(t, 1, cache.Count())

	cache.Store(ref.AppendingPath("MyClass"))
	assert.Equal(t, 2, cache.Count())

	got, ok := cache.Lookup(ref.URL())
	assert.True(t, ok)
	assert.Equal(t, ref, got)
}
