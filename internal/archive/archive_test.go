package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffoldCreatesEmptyAssetDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out.doccarchive")
	require.NoError(t, Scaffold(root))

	for _, dir := range []string{ImagesDir, VideosDir, DownloadsDir, DataDir, IndexDir} {
		st, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err, dir)
		assert.True(t, st.IsDir())
	}
}

func TestMetadataRoundTripAndFingerprint(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Scaffold(root))
	require.NoError(t, os.WriteFile(filepath.Join(root, DataDir, "page.json"), []byte(`{"a":1}`), 0o644))

	meta := Metadata{BundleIdentifier: "com.example", BundleDisplayName: "Example", SchemaVersion: 1}
	require.NoError(t, WriteMetadata(root, meta))

	read, err := ReadMetadata(root)
	require.NoError(t, err)
	assert.Equal(t, "com.example", read.BundleIdentifier)
	assert.NotEmpty(t, read.Fingerprint)

	// Same content, same fingerprint; changed content, changed fingerprint.
	again, err := FingerprintData(root)
	require.NoError(t, err)
	assert.Equal(t, read.Fingerprint, again)

	require.NoError(t, os.WriteFile(filepath.Join(root, DataDir, "page.json"), []byte(`{"a":2}`), 0o644))
	changed, err := FingerprintData(root)
	require.NoError(t, err)
	assert.NotEqual(t, read.Fingerprint, changed)
}

func TestIsArchive(t *testing.T) {
	root := t.TempDir()
	assert.False(t, IsArchive(filepath.Join(root, "missing")))
	require.NoError(t, Scaffold(root))
	assert.True(t, IsArchive(root))
}
