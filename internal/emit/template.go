package emit

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// InstallTemplate copies the renderer template directory (index.html plus
// its css/js/asset siblings) into the archive root, so the built archive can
// be hosted or transformed on its own. Top-level template entries that
// collide with the archive's own sections are skipped; the archive's output
// always wins.
func InstallTemplate(archiveRoot, templateDir string) error {
	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read renderer template directory")
	}
	for _, entry := range entries {
		name := entry.Name()
		if reservedArchiveEntry(name) {
			continue
		}
		src := filepath.Join(templateDir, name)
		dst := filepath.Join(archiveRoot, name)
		if err := copyTree(src, dst); err != nil {
			return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "install renderer template")
		}
	}
	return nil
}

func reservedArchiveEntry(name string) bool {
	switch name {
	case archive.DataDir, archive.IndexDir, archive.MetadataFileName,
		archive.DiagnosticsFileName, archive.IndexingRecordsFileName,
		archive.LinkableEntitiesFile, archive.AssetsFileName:
		return true
	}
	return false
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
