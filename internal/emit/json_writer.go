// Package emit contains the output consumers of a conversion run: the JSON
// archive writer, the static HTML mirror writer and the digest writers.
package emit

import (
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/convert"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

type writeJob struct {
	path string // archive-relative
	data []byte
	errc chan error
}

// JSONWriter persists render nodes, copied assets and archive metadata under
// the archive root. Disk writes run on one dedicated goroutine; every
// consume call surfaces its write error synchronously, and a failed write
// never wedges the pipeline because the writer goroutine always answers.
type JSONWriter struct {
	root string
	jobs chan writeJob
	done chan struct{}
}

// NewJSONWriter scaffolds the archive layout and starts the writer
// goroutine. Close releases it.
func NewJSONWriter(root string) (*JSONWriter, error) {
	if err := archive.Scaffold(root); err != nil {
		return nil, err
	}
	w := &JSONWriter{
		root: root,
		jobs: make(chan writeJob),
		done: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *JSONWriter) run() {
	defer close(w.done)
	for job := range w.jobs {
		job.errc <- w.writeFile(job.path, job.data)
	}
}

func (w *JSONWriter) writeFile(rel string, data []byte) error {
	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create directory for "+rel)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write "+rel)
	}
	return nil
}

// write hands a file to the writer goroutine and waits for its result.
func (w *JSONWriter) write(rel string, data []byte) error {
	errc := make(chan error, 1)
	w.jobs <- writeJob{path: rel, data: data, errc: errc}
	return <-errc
}

// ConsumeRenderNode writes data/<route>.json.
func (w *JSONWriter) ConsumeRenderNode(ref reference.TopicReference, node *render.Node) error {
	data, err := render.Encode(node)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "encode "+ref.URL())
	}
	return w.write(render.DataFilePath(ref), data)
}

// ConsumeProblems is part of the consumer contract; diagnostics files are
// the digest writer's concern.
func (w *JSONWriter) ConsumeProblems([]diagnostics.Problem) error { return nil }

// ConsumeAssets copies catalog media into the archive's namespaced asset
// directories.
func (w *JSONWriter) ConsumeAssets(assets []convert.Asset) error {
	for _, asset := range assets {
		if err := w.copyAsset(asset); err != nil {
			return err
		}
	}
	return nil
}

func (w *JSONWriter) copyAsset(asset convert.Asset) error {
	src, err := os.Open(asset.SourcePath)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "open asset "+asset.Name)
	}
	defer src.Close()

	abs := filepath.Join(w.root, filepath.FromSlash(asset.ArchivePath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create asset directory")
	}
	dst, err := os.Create(abs)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create "+asset.ArchivePath)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "copy "+asset.ArchivePath)
	}
	return nil
}

// ConsumeBuildMetadata fingerprints the written data tree and writes
// metadata.json. It runs after every render node has been persisted.
func (w *JSONWriter) ConsumeBuildMetadata(meta convert.BuildMetadata) error {
	return archive.WriteMetadata(w.root, archive.Metadata{
		BundleIdentifier:  meta.BundleIdentifier,
		BundleDisplayName: meta.BundleDisplayName,
		SchemaVersion:     meta.SchemaVersion,
	})
}

// Close stops the writer goroutine and waits for it to drain.
func (w *JSONWriter) Close() error {
	close(w.jobs)
	<-w.done
	return nil
}
