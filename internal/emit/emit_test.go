package emit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/convert"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

func sampleNode(title string) (*render.Node, reference.TopicReference) {
	ref := reference.NewTopicReference("com.example", "/documentation/MyKit/"+title, reference.LanguageSwift)
	return &render.Node{
		SchemaVersion: render.CurrentSchemaVersion,
		Identifier:    render.Identifier{URL: ref.URL(), InterfaceLanguage: "swift"},
		Kind:          render.KindSymbol,
		Metadata:      render.Metadata{Title: title},
		Abstract:      "The abstract for " + title + ".",
	}, ref
}

func TestJSONWriterWritesRouteFiles(t *testing.T) {
	root := t.TempDir()
	w, err := NewJSONWriter(root)
	require.NoError(t, err)
	defer w.Close()

	node, ref := sampleNode("MyClass")
	require.NoError(t, w.ConsumeRenderNode(ref, node))

	data, err := os.ReadFile(filepath.Join(root, "data", "documentation", "mykit", "myclass.json"))
	require.NoError(t, err)
	decoded, err := render.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "MyClass", decoded.Metadata.Title)

	// Asset directories exist even though nothing was copied into them.
	for _, dir := range []string{archive.ImagesDir, archive.VideosDir, archive.DownloadsDir} {
		st, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	}
}

func TestJSONWriterSurfacesWriteFailureWithoutDeadlock(t *testing.T) {
	root := t.TempDir()
	w, err := NewJSONWriter(root)
	require.NoError(t, err)
	defer w.Close()

	// Make data/ unwritable so every node write fails.
	require.NoError(t, os.Chmod(filepath.Join(root, archive.DataDir), 0o555))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, archive.DataDir), 0o755) })

	node, ref := sampleNode("MyClass")

	done := make(chan error, 1)
	go func() {
		err := w.ConsumeRenderNode(ref, node)
		// A second write after a failure must also return, not hang.
		if err2 := w.ConsumeRenderNode(ref, node); err == nil {
			err = err2
		}
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, archerr.IsCategory(err, archerr.CategoryFileSystem))
	case <-time.After(5 * time.Second):
		t.Fatal("writer deadlocked on a failed write")
	}
}

func TestJSONWriterCopiesAssetsAndMetadata(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "figure1.png")
	require.NoError(t, os.WriteFile(srcPath, []byte("png-bytes"), 0o644))

	w, err := NewJSONWriter(root)
	require.NoError(t, err)
	defer w.Close()

	node, ref := sampleNode("MyClass")
	require.NoError(t, w.ConsumeRenderNode(ref, node))

	require.NoError(t, w.ConsumeAssets([]convert.Asset{{
		Name:        "figure1",
		Kind:        render.ReferenceTypeImage,
		SourcePath:  srcPath,
		ArchivePath: "images/com.example/figure1.png",
	}}))
	copied, err := os.ReadFile(filepath.Join(root, "images", "com.example", "figure1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(copied))

	require.NoError(t, w.ConsumeBuildMetadata(convert.BuildMetadata{
		BundleIdentifier:  "com.example",
		BundleDisplayName: "Example",
		SchemaVersion:     render.CurrentSchemaVersion,
	}))
	meta, err := archive.ReadMetadata(root)
	require.NoError(t, err)
	assert.Equal(t, "com.example", meta.BundleIdentifier)
	assert.NotEmpty(t, meta.Fingerprint)
}

const testTemplate = `<!DOCTYPE html>
<html><head><title>Documentation</title></head>
<body><div id="app"></div><noscript></noscript></body></html>`

func TestHTMLWriterInjectsTitleAndAbstract(t *testing.T) {
	root := t.TempDir()
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "index.html"), []byte(testTemplate), 0o644))

	w, err := NewHTMLWriter(root, templateDir)
	require.NoError(t, err)

	node, ref := sampleNode("MyClass")
	require.NoError(t, w.ConsumeRenderNode(ref, node))

	page, err := os.ReadFile(filepath.Join(root, "documentation", "mykit", "myclass", "index.html"))
	require.NoError(t, err)
	content := string(page)
	assert.Contains(t, content, "<title>MyClass</title>")
	assert.Contains(t, content, `content="The abstract for MyClass."`)
	assert.Contains(t, content, "<noscript><h1>MyClass</h1><p>The abstract for MyClass.</p></noscript>")

	// The shared template stays pristine for the next page.
	other, otherRef := sampleNode("MyStruct")
	require.NoError(t, w.ConsumeRenderNode(otherRef, other))
	page2, err := os.ReadFile(filepath.Join(root, "documentation", "mykit", "mystruct", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(page2), "MyClass")
}

func TestInstallTemplateCopiesShellAndAssets(t *testing.T) {
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "index.html"), []byte(testTemplate), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(templateDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "css", "site.css"), []byte("body{}"), 0o644))
	// A template must not clobber the archive's own sections.
	require.NoError(t, os.MkdirAll(filepath.Join(templateDir, archive.DataDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, archive.DataDir, "stray.json"), []byte("{}"), 0o644))

	root := t.TempDir()
	require.NoError(t, InstallTemplate(root, templateDir))

	assert.FileExists(t, filepath.Join(root, "index.html"))
	assert.FileExists(t, filepath.Join(root, "css", "site.css"))
	assert.NoFileExists(t, filepath.Join(root, archive.DataDir, "stray.json"))
}

func TestDigestTogglesAreIndependent(t *testing.T) {
	root := t.TempDir()
	w := NewDigestWriter(root, DigestOptions{Diagnostics: true, LinkableEntities: true})

	require.NoError(t, w.ConsumeProblems([]diagnostics.Problem{
		{Diagnostic: diagnostics.Diagnostic{Severity: diagnostics.SeverityWarning, Identifier: "id", Summary: "s"}},
	}))
	require.NoError(t, w.ConsumeLinkableEntities([]convert.LinkableEntity{{ReferenceURL: "doc://x/documentation/X", Title: "X"}}))
	require.NoError(t, w.ConsumeIndexingRecords([]convert.IndexingRecord{{Title: "X"}}))
	require.NoError(t, w.ConsumeAssets([]convert.Asset{{Name: "a"}}))

	assert.FileExists(t, filepath.Join(root, archive.DiagnosticsFileName))
	assert.FileExists(t, filepath.Join(root, archive.LinkableEntitiesFile))
	assert.NoFileExists(t, filepath.Join(root, archive.IndexingRecordsFileName))
	assert.NoFileExists(t, filepath.Join(root, archive.AssetsFileName))
}

func TestDigestDiagnosticsWrittenWhenEmpty(t *testing.T) {
	root := t.TempDir()
	w := NewDigestWriter(root, DigestOptions{Diagnostics: true})
	require.NoError(t, w.ConsumeProblems(nil))

	data, err := os.ReadFile(filepath.Join(root, archive.DiagnosticsFileName))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
