package flush

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"tickrecorder/internal/session"
)

// Archiver consolidates a completed trading day's daily files into one
// compressed container and removes the originals. Archiving runs off the hot
// path, so the container format favors compression ratio over speed.
type Archiver struct {
	outDir string
	logger *zap.Logger
}

func NewArchiver(outDir string, logger *zap.Logger) *Archiver {
	return &Archiver{outDir: outDir, logger: logger}
}

// ArchivePath returns the container path for a trading day.
func (a *Archiver) ArchivePath(day session.TradingDay) string {
	return filepath.Join(a.outDir, day.String()+".tar.xz")
}

// Archive writes every file under the day's directory into
// <outdir>/<day>.tar.xz with entries namespaced <day>/<name>, then deletes
// the originals and the emptied directory. Invoking it again after success
// observes a missing or empty directory and performs no work. After a partial
// failure the originals are still on disk and a retry re-archives them; files
// already deleted are never re-read because deletion only happens after the
// finished container has been renamed into place.
func (a *Archiver) Archive(day session.TradingDay) error {
	dir := filepath.Join(a.outDir, day.String())

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil // already archived
	}
	if err != nil {
		return fmt.Errorf("archive: read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		// Nothing left to pack; just drop the empty directory.
		_ = os.Remove(dir)
		return nil
	}

	final := a.ArchivePath(day)
	if _, err := os.Stat(final); err == nil {
		// A finished container already exists; a prior run failed only
		// during cleanup. Never overwrite it, just finish the cleanup.
		a.logger.Warn("archive already exists, cleaning up leftovers",
			zap.String("archive", final),
			zap.Int("leftover_files", len(names)))
		return a.removeOriginals(dir, names)
	}

	if err := a.writeContainer(final, dir, day.String(), names); err != nil {
		return err
	}

	a.logger.Info("archived trading day",
		zap.String("trading_day", day.String()),
		zap.Int("files", len(names)))

	return a.removeOriginals(dir, names)
}

func (a *Archiver) writeContainer(final, dir, prefix string, names []string) error {
	tmp := final + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", tmp, err)
	}
	defer func() {
		if out != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	xzw, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("archive: xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)

	for _, name := range names {
		if err := addFile(tw, filepath.Join(dir, name), prefix+"/"+name); err != nil {
			return fmt.Errorf("archive: add %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("archive: close tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("archive: close xz: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("archive: close %s: %w", tmp, err)
	}
	out = nil // disarm the cleanup defer

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: rename: %w", err)
	}
	return nil
}

func (a *Archiver) removeOriginals(dir string, names []string) error {
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("archive: remove %s: %w", name, err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("archive: remove %s: %w", dir, err)
	}
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
