// Package archive defines the on-disk layout of a built documentation
// archive and its identifying metadata file.
package archive

import (
	"os"
	"path/filepath"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// Well-known archive paths, relative to the archive root.
const (
	DataDir          = "data"
	DocumentationDir = "documentation"
	TutorialsDir     = "tutorials"
	ImagesDir        = "images"
	VideosDir        = "videos"
	DownloadsDir     = "downloads"
	IndexDir         = "index"
	IndexFileName    = "index/index.json"
	IndexDBFileName  = "index/navigator.db"
	MetadataFileName = "metadata.json"

	DiagnosticsFileName     = "diagnostics.json"
	IndexingRecordsFileName = "indexing-records.json"
	LinkableEntitiesFile    = "linkable-entities.json"
	AssetsFileName          = "assets.json"
)

// ScaffoldDirs are created for every archive, present even when empty.
var ScaffoldDirs = []string{
	DataDir,
	DocumentationDir,
	ImagesDir,
	VideosDir,
	DownloadsDir,
	IndexDir,
}

// Scaffold creates the archive root and its standard directories. Asset
// directories exist even when the catalog ships no assets.
func Scaffold(root string) error {
	for _, dir := range append([]string{"."}, ScaffoldDirs...) {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal,
				"create archive directory "+dir)
		}
	}
	return nil
}

// IsArchive reports whether a directory looks like a built archive.
func IsArchive(root string) bool {
	if _, err := os.Stat(filepath.Join(root, MetadataFileName)); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(root, DataDir))
	return err == nil
}
