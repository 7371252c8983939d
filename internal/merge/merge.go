package merge

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/navigator"
	"git.home.luguber.info/inful/docarchive/internal/render"
	"git.home.luguber.info/inful/docarchive/internal/util/sets"
)

// sections whose contents concatenate across inputs; everything else at an
// archive root is renderer template, copied from the first input only.
var mergedSections = sets.New(
	archive.DataDir,
	archive.DocumentationDir,
	archive.TutorialsDir,
	archive.ImagesDir,
	archive.VideosDir,
	archive.DownloadsDir,
	archive.IndexDir,
	archive.MetadataFileName,
)

// Merge combines the input archives into output. Preflight must have
// passed; Merge assumes non-colliding inputs and an empty output.
func Merge(inputs []string, output string) error {
	if err := archive.Scaffold(output); err != nil {
		return err
	}

	// Renderer template comes from the first archive once.
	if err := copyTemplate(inputs[0], output); err != nil {
		return err
	}

	for _, in := range inputs {
		for _, section := range []string{
			archive.DataDir, archive.DocumentationDir, archive.TutorialsDir,
			archive.ImagesDir, archive.VideosDir, archive.DownloadsDir,
		} {
			if err := copyTree(filepath.Join(in, section), filepath.Join(output, section)); err != nil {
				return err
			}
		}
	}

	if err := synthesizeLandingPage(inputs, output); err != nil {
		return err
	}

	// The merged navigator index is rebuilt from the combined data tree.
	builder, err := navigator.BuildFromArchive(output)
	if err != nil {
		return err
	}
	tree, problems := builder.Finalize()
	if err := navigator.Write(output, tree, navigator.WriteOptions{EmitJSON: true, EmitDB: true}); err != nil {
		return err
	}

	slog.Info("Archives merged",
		slog.Int("inputs", len(inputs)),
		slog.Int("navigator_nodes", tree.Count()),
		slog.Int("navigator_problems", len(problems)))
	return nil
}

// copyTemplate copies the first archive's root entries that are not merged
// sections: the renderer's index.html, scripts, styles and the like.
func copyTemplate(first, output string) error {
	entries, err := os.ReadDir(first)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read "+first)
	}
	for _, e := range entries {
		if mergedSections.Has(e.Name()) || isDigestFile(e.Name()) {
			continue
		}
		src := filepath.Join(first, e.Name())
		dst := filepath.Join(output, e.Name())
		if e.IsDir() {
			if err := copyTree(src, dst); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func isDigestFile(name string) bool {
	switch name {
	case archive.DiagnosticsFileName, archive.IndexingRecordsFileName,
		archive.LinkableEntitiesFile, archive.AssetsFileName,
		"documentation-coverage.json":
		return true
	}
	return false
}

func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read "+src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create "+dst)
	}
	for _, e := range entries {
		s, d := filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyTree(s, d); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(s, d); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "open "+src)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create directory for "+dst)
	}
	out, err := os.Create(dst)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create "+dst)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "copy "+dst)
	}
	return nil
}

// synthesizeLandingPage writes the merged root page: a Modules section
// listing each input's modules and, only when tutorials exist, a Tutorials
// section. An empty section is never emitted.
func synthesizeLandingPage(inputs []string, output string) error {
	var modules, tutorials []landingEntry
	for _, in := range inputs {
		meta, err := archive.ReadMetadata(in)
		if err != nil {
			return err
		}
		m, err := landingEntries(in, archive.DocumentationDir, meta.BundleIdentifier)
		if err != nil {
			return err
		}
		modules = append(modules, m...)
		tuts, err := landingEntries(in, archive.TutorialsDir, meta.BundleIdentifier)
		if err != nil {
			return err
		}
		tutorials = append(tutorials, tuts...)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].title < modules[j].title })
	sort.Slice(tutorials, func(i, j int) bool { return tutorials[i].title < tutorials[j].title })

	node := &render.Node{
		SchemaVersion: render.CurrentSchemaVersion,
		Identifier:    render.Identifier{URL: "doc://merged/documentation", InterfaceLanguage: "swift"},
		Kind:          render.KindOverview,
		Metadata:      render.Metadata{Title: "Documentation", Role: "collection"},
		References:    map[string]render.Reference{},
	}
	node.TopicSections = append(node.TopicSections, sectionFor("Modules", modules, node)...)
	node.TopicSections = append(node.TopicSections, sectionFor("Tutorials", tutorials, node)...)

	data, err := render.Encode(node)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "encode merged landing page")
	}
	path := filepath.Join(output, archive.DataDir, "documentation.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write merged landing page")
	}
	return nil
}

type landingEntry struct {
	title string
	url   string
	route string
}

// landingEntries lists the top-level pages one input contributes to a
// landing section by reading its render JSON for titles.
func landingEntries(in, section, bundleID string) ([]landingEntry, error) {
	dir := filepath.Join(in, archive.DataDir, section)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read "+dir)
	}

	var out []landingEntry
	seen := sets.New[string]()
	for _, e := range entries {
		var jsonPath string
		if e.IsDir() {
			jsonPath = filepath.Join(dir, e.Name()+".json")
			if _, err := os.Stat(jsonPath); err != nil {
				continue
			}
		} else if strings.HasSuffix(e.Name(), ".json") {
			jsonPath = filepath.Join(dir, e.Name())
		} else {
			continue
		}
		if seen.Has(jsonPath) {
			continue
		}
		seen.Add(jsonPath)
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read "+jsonPath)
		}
		node, err := render.Decode(data)
		if err != nil {
			return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "decode "+jsonPath)
		}
		slug := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
		out = append(out, landingEntry{
			title: node.Metadata.Title,
			url:   node.Identifier.URL,
			route: section + "/" + slug,
		})
	}
	return out, nil
}

func sectionFor(title string, entries []landingEntry, node *render.Node) []render.TopicSection {
	if len(entries) == 0 {
		return nil
	}
	section := render.TopicSection{Title: title}
	for _, e := range entries {
		section.Identifiers = append(section.Identifiers, e.url)
		node.References[e.url] = render.TopicRenderReference(e.url, e.title, "/"+e.route)
	}
	return []render.TopicSection{section}
}
