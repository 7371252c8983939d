package emit

import (
	"encoding/json"
	"path/filepath"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	"git.home.luguber.info/inful/docarchive/internal/convert"
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

// DigestOptions toggles each digest file independently.
type DigestOptions struct {
	Diagnostics      bool
	IndexingRecords  bool
	LinkableEntities bool
	Assets           bool
	Coverage         bool
}

// DigestWriter emits the machine-readable digest files at the archive root.
// Each file is written only when its toggle is set; toggles are independent.
type DigestWriter struct {
	root string
	opts DigestOptions
}

// NewDigestWriter creates a digest writer for an archive root.
func NewDigestWriter(root string, opts DigestOptions) *DigestWriter {
	return &DigestWriter{root: root, opts: opts}
}

func (w *DigestWriter) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "encode "+name)
	}
	path := filepath.Join(w.root, name)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write "+name)
	}
	return nil
}

// ConsumeRenderNode is part of the consumer contract; digests are
// bundle-level.
func (w *DigestWriter) ConsumeRenderNode(reference.TopicReference, *render.Node) error { return nil }

// ConsumeProblems writes diagnostics.json sorted into a stable order.
func (w *DigestWriter) ConsumeProblems(problems []diagnostics.Problem) error {
	if !w.opts.Diagnostics {
		return nil
	}
	sorted := append([]diagnostics.Problem(nil), problems...)
	diagnostics.SortProblems(sorted)
	if sorted == nil {
		sorted = []diagnostics.Problem{}
	}
	return w.writeJSON(archive.DiagnosticsFileName, sorted)
}

// ConsumeIndexingRecords writes indexing-records.json.
func (w *DigestWriter) ConsumeIndexingRecords(records []convert.IndexingRecord) error {
	if !w.opts.IndexingRecords {
		return nil
	}
	return w.writeJSON(archive.IndexingRecordsFileName, records)
}

// ConsumeLinkableEntities writes linkable-entities.json.
func (w *DigestWriter) ConsumeLinkableEntities(entities []convert.LinkableEntity) error {
	if !w.opts.LinkableEntities {
		return nil
	}
	return w.writeJSON(archive.LinkableEntitiesFile, entities)
}

// ConsumeAssets writes assets.json.
func (w *DigestWriter) ConsumeAssets(assets []convert.Asset) error {
	if !w.opts.Assets {
		return nil
	}
	summaries := make([]convert.AssetSummary, 0, len(assets))
	for _, a := range assets {
		summaries = append(summaries, convert.AssetSummary{
			Identifier:  a.Name,
			Type:        string(a.Kind),
			ArchivePath: a.ArchivePath,
		})
	}
	return w.writeJSON(archive.AssetsFileName, summaries)
}

// ConsumeCoverage writes documentation-coverage.json.
func (w *DigestWriter) ConsumeCoverage(info convert.CoverageInfo) error {
	if !w.opts.Coverage {
		return nil
	}
	return w.writeJSON("documentation-coverage.json", info)
}
