package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// Metadata identifies a built archive: the catalog that produced it, the
// schema version of its render JSON, and a content fingerprint merge and
// incremental tooling use to detect changed archives cheaply.
type Metadata struct {
	BundleIdentifier  string `json:"bundleIdentifier"`
	BundleDisplayName string `json:"bundleDisplayName"`
	SchemaVersion     int    `json:"schemaVersion"`
	Fingerprint       string `json:"fingerprint,omitempty"`
}

// WriteMetadata fingerprints the archive's data tree and writes
// metadata.json at the archive root.
func WriteMetadata(root string, meta Metadata) error {
	fingerprint, err := FingerprintData(root)
	if err != nil {
		return err
	}
	meta.Fingerprint = fingerprint

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "encode archive metadata")
	}
	path := filepath.Join(root, MetadataFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write "+MetadataFileName)
	}
	return nil
}

// ReadMetadata loads an archive's metadata.json.
func ReadMetadata(root string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(root, MetadataFileName))
	if err != nil {
		return Metadata{}, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal,
			"read "+MetadataFileName)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal,
			"malformed "+MetadataFileName)
	}
	return meta, nil
}

// FingerprintData hashes every file under data/ in path order. Identical
// archive content yields an identical fingerprint on every platform.
func FingerprintData(root string) (string, error) {
	h := blake3.New(32, nil)
	dataRoot := filepath.Join(root, DataDir)

	err := filepath.Walk(dataRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\n", filepath.ToSlash(rel))
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		h.Write(content)
		return nil
	})
	if os.IsNotExist(err) {
		err = nil
	}
	if err != nil {
		return "", archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "fingerprint archive data")
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
