package flush

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"tickrecorder/internal/session"
)

func writeDayFiles(t *testing.T, outDir, day string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(outDir, day)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	xzr, err := xz.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(xzr)

	entries := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	return entries
}

func TestArchiveConsolidatesAndRemovesOriginals(t *testing.T) {
	outDir := t.TempDir()
	a := NewArchiver(outDir, zap.NewNop())
	day := session.TradingDay("20240102")

	writeDayFiles(t, outDir, "20240102", map[string]string{
		"rb2405.csv": "header\nrow1\n",
		"ag2406.csv": "header\nrowA\nrowB\n",
	})

	require.NoError(t, a.Archive(day))

	entries := readArchive(t, a.ArchivePath(day))
	require.Len(t, entries, 2)
	assert.Equal(t, "header\nrow1\n", entries["20240102/rb2405.csv"])
	assert.Equal(t, "header\nrowA\nrowB\n", entries["20240102/ag2406.csv"])

	_, err := os.Stat(filepath.Join(outDir, "20240102"))
	assert.True(t, os.IsNotExist(err), "day directory removed")
}

func TestArchiveIsIdempotent(t *testing.T) {
	outDir := t.TempDir()
	a := NewArchiver(outDir, zap.NewNop())
	day := session.TradingDay("20240102")

	writeDayFiles(t, outDir, "20240102", map[string]string{"rb2405.csv": "data\n"})
	require.NoError(t, a.Archive(day))

	info, err := os.Stat(a.ArchivePath(day))
	require.NoError(t, err)

	// Second invocation observes a missing directory and does nothing.
	require.NoError(t, a.Archive(day))

	again, err := os.Stat(a.ArchivePath(day))
	require.NoError(t, err)
	assert.Equal(t, info.Size(), again.Size())
}

func TestArchiveNeverOverwritesAFinishedContainer(t *testing.T) {
	outDir := t.TempDir()
	a := NewArchiver(outDir, zap.NewNop())
	day := session.TradingDay("20240102")

	writeDayFiles(t, outDir, "20240102", map[string]string{
		"rb2405.csv": "full archive content\n",
	})
	require.NoError(t, a.Archive(day))
	finished := readArchive(t, a.ArchivePath(day))

	// Simulate a crash after the rename but before cleanup finished: a
	// leftover file reappears in the day directory.
	writeDayFiles(t, outDir, "20240102", map[string]string{"rb2405.csv": "leftover\n"})
	require.NoError(t, a.Archive(day))

	assert.Equal(t, finished, readArchive(t, a.ArchivePath(day)),
		"retry cleans up leftovers without touching the finished container")
	_, err := os.Stat(filepath.Join(outDir, "20240102"))
	assert.True(t, os.IsNotExist(err))
}

func TestArchiveMissingOrEmptyDirectory(t *testing.T) {
	outDir := t.TempDir()
	a := NewArchiver(outDir, zap.NewNop())

	require.NoError(t, a.Archive("20240102"), "missing directory is not an error")

	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "20240103"), 0755))
	require.NoError(t, a.Archive("20240103"))

	_, err := os.Stat(filepath.Join(outDir, "20240103"))
	assert.True(t, os.IsNotExist(err), "empty directory is dropped")
	_, err = os.Stat(a.ArchivePath("20240103"))
	assert.True(t, os.IsNotExist(err), "no container is written for an empty day")
}
