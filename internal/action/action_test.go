package action

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/emit"
	"git.home.luguber.info/inful/docarchive/internal/navigator"
)

const actionGraph = `{
  "module": {"name": "MyKit"},
  "symbols": [
    {
      "identifier": {"precise": "s:5MyKit7MyClassC", "interfaceLanguage": "swift"},
      "names": {"title": "MyClass"},
      "kind": {"identifier": "swift.class", "displayName": "Class"},
      "pathComponents": ["MyClass"],
      "docComment": {"lines": [{"text": "A class."}]}
    }
  ]
}`

func fixtureCatalog(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write := func(rel, content string) {
		abs := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	write("catalog.yaml", "identifier: org.swift.docc.example\ndisplay_name: MyKit\n")
	write("mykit.symbols.json", actionGraph)
	write("MyKit.md", "# ``MyKit``\n\nA framework.\n\n## Essentials\n\n- <doc:MyKit/MyClass>\n- <doc:NotThere>\n")
	return root
}

func TestConvertActionProducesArchive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "MyKit.doccarchive")
	act := NewConvertAction(ConvertOptions{
		CatalogPath: fixtureCatalog(t),
		OutputPath:  out,
		Digests:     emit.DigestOptions{Diagnostics: true, LinkableEntities: true},
	})

	result, err := act.Perform(context.Background())
	require.NoError(t, err)
	assert.False(t, result.DidEncounterError)
	assert.Contains(t, result.Outputs, out)

	assert.FileExists(t, filepath.Join(out, "data", "documentation", "mykit.json"))
	assert.FileExists(t, filepath.Join(out, "data", "documentation", "mykit", "myclass.json"))
	assert.FileExists(t, filepath.Join(out, "index", "index.json"))
	assert.FileExists(t, filepath.Join(out, "metadata.json"))
	assert.FileExists(t, filepath.Join(out, archive.DiagnosticsFileName))
	assert.FileExists(t, filepath.Join(out, archive.LinkableEntitiesFile))

	// The broken link surfaced as a problem without failing the build.
	require.NotEmpty(t, result.Problems)
	assert.Equal(t, diagnostics.SeverityWarning, result.Problems[0].Diagnostic.Severity)
}

func TestConvertActionWarningsAsErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	act := NewConvertAction(ConvertOptions{
		CatalogPath: fixtureCatalog(t),
		OutputPath:  out,
		Diagnostics: diagnostics.NewEngine(diagnostics.WithWarningsAsErrors()),
	})
	result, err := act.Perform(context.Background())
	require.NoError(t, err)
	assert.True(t, result.DidEncounterError)
}

func TestConvertActionWritesDiagnosticsOnFailure(t *testing.T) {
	out := t.TempDir()
	act := NewConvertAction(ConvertOptions{
		CatalogPath: filepath.Join(t.TempDir(), "missing-catalog"),
		OutputPath:  out,
		Digests:     emit.DigestOptions{Diagnostics: true},
	})
	result, err := act.Perform(context.Background())
	require.Error(t, err)
	assert.True(t, result.DidEncounterError)
	assert.FileExists(t, filepath.Join(out, archive.DiagnosticsFileName))
}

func TestIndexActionMatchesConversionIndex(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	_, err := NewConvertAction(ConvertOptions{
		CatalogPath: fixtureCatalog(t),
		OutputPath:  out,
	}).Perform(context.Background())
	require.NoError(t, err)

	fromConversion, err := navigator.ReadIndex(out)
	require.NoError(t, err)

	_, err = NewIndexAction(IndexOptions{ArchivePath: out}).Perform(context.Background())
	require.NoError(t, err)

	fromSecondPass, err := navigator.ReadIndex(out)
	require.NoError(t, err)
	assert.Equal(t, fromConversion.Dump(), fromSecondPass.Dump())
}

func fixtureTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	shell := `<!DOCTYPE html>
<html><head><title>Documentation</title></head>
<body><div id="app"></div><noscript></noscript></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(shell), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0o644))
	return dir
}

func TestTransformActionInPlace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	_, err := NewConvertAction(ConvertOptions{
		CatalogPath:  fixtureCatalog(t),
		OutputPath:   out,
		TemplatePath: fixtureTemplate(t),
	}).Perform(context.Background())
	require.NoError(t, err)

	result, err := NewTransformAction(TransformOptions{ArchivePath: out, BasePath: "/docs/"}).Perform(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Outputs, out)
	assert.FileExists(t, filepath.Join(out, "documentation", "mykit", "index.html"))
}

func TestConvertActionInstallsTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	result, err := NewConvertAction(ConvertOptions{
		CatalogPath:               fixtureCatalog(t),
		OutputPath:                out,
		TemplatePath:              fixtureTemplate(t),
		TransformForStaticHosting: true,
		HostingBasePath:           "/docs/",
	}).Perform(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Outputs, out)

	// The renderer shell and its assets land at the archive root, so the
	// static-hosting transform can run on the archive as built.
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "css", "site.css"))
	assert.FileExists(t, filepath.Join(out, "documentation", "mykit", "index.html"))
	assert.FileExists(t, filepath.Join(out, "documentation", "mykit", "myclass", "index.html"))
}
