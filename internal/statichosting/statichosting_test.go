package statichosting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docarchive/internal/archive"
)

func TestNormalizeBasePath(t *testing.T) {
	for _, input := range []string{"test", "/test", "test/", "/test/", " /test/ "} {
		assert.Equal(t, "test", NormalizeBasePath(input), "input %q", input)
	}
	assert.Equal(t, "a/b", NormalizeBasePath("/a/b/"))
	assert.Equal(t, "", NormalizeBasePath("/"))
	assert.Equal(t, "", NormalizeBasePath(""))
}

const template = `<!DOCTYPE html>
<html><head><link rel="stylesheet" href="/css/site.css"></head>
<body><script src="/js/app.js"></script></body></html>`

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, archive.Scaffold(root))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(template), 0o644))
	for _, rel := range []string{
		"data/documentation/mykit.json",
		"data/documentation/mykit/myclass.json",
		"data/tutorials/intro.json",
	} {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(`{"schemaVersion":1}`), 0o644))
	}
	return root
}

func TestTransformInPlaceWritesRoutePages(t *testing.T) {
	root := fixture(t)
	require.NoError(t, Transform(root, Options{}))

	for _, rel := range []string{
		"documentation/mykit/index.html",
		"documentation/mykit/myclass/index.html",
		"tutorials/intro/index.html",
	} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
	}
}

func TestTransformRewritesBasePath(t *testing.T) {
	root := fixture(t)
	require.NoError(t, Transform(root, Options{BasePath: "/docs/"}))

	page, err := os.ReadFile(filepath.Join(root, "documentation", "mykit", "index.html"))
	require.NoError(t, err)
	content := string(page)
	assert.Contains(t, content, `href="/docs/css/site.css"`)
	assert.Contains(t, content, `src="/docs/js/app.js"`)

	// The root template is rewritten too, and only once.
	require.NoError(t, Transform(root, Options{BasePath: "docs"}))
	rootPage, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(rootPage), `href="/docs/css/site.css"`)
	assert.NotContains(t, string(rootPage), "/docs/docs/")
}

func TestTransformToExternalOutputLeavesSourceUntouched(t *testing.T) {
	root := fixture(t)
	out := filepath.Join(t.TempDir(), "hosted")
	require.NoError(t, Transform(root, Options{OutputDir: out, BasePath: "test"}))

	assert.FileExists(t, filepath.Join(out, "documentation", "mykit", "index.html"))
	assert.NoFileExists(t, filepath.Join(root, "documentation", "mykit", "index.html"))

	src, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, template, string(src))
}

func TestTransformWithoutTemplateFails(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, archive.Scaffold(root))
	err := Transform(root, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer template")
}
