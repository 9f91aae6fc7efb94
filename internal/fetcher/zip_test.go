package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestExtractZIP_ShapefileBundle(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"GBPU_BC_polygon.shp": "shp",
		"GBPU_BC_polygon.shx": "shx",
		"GBPU_BC_polygon.dbf": "dbf",
	})

	destDir := filepath.Join(t.TempDir(), "bundle")
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 3)

	data, err := os.ReadFile(filepath.Join(destDir, "GBPU_BC_polygon.dbf"))
	require.NoError(t, err)
	assert.Equal(t, "dbf", string(data))
}

func TestExtractZIP_WithSubdirectory(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"gbpu/":          "",
		"gbpu/layer.shp": "nested",
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	require.Len(t, extracted, 1)
	assert.Equal(t, filepath.Join(destDir, "gbpu", "layer.shp"), extracted[0])
}

func TestExtractZIP_ZipSlipPrevention(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"../../etc/evil.txt": "malicious",
	})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractZIP_InvalidArchive(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(badPath, []byte("not a zip"), 0o644))

	_, err := ExtractZIP(badPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip: open archive")
}

func TestExtractZIP_EmptyArchive(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{})
	extracted, err := ExtractZIP(zipPath, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, extracted)
}
