package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ZipExtractor unpacks vendor zip archives.
type ZipExtractor struct{}

func NewZipExtractor() *ZipExtractor {
	return &ZipExtractor{}
}

// Extract unpacks every entry of archivePath below targetDir, keeping the
// archive's directory structure. Entries that would land outside targetDir
// are rejected before anything is written.
func (z *ZipExtractor) Extract(archivePath, targetDir string) error {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	root, err := filepath.Abs(targetDir)
	if err != nil {
		return err
	}

	dests := make([]string, len(archive.File))
	for i, f := range archive.File {
		dest, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}
		dests[i] = dest
	}

	for i, f := range archive.File {
		if err := extractFile(f, dests[i]); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}

	slog.Info("Extracted archive", "archive", archivePath, "target", targetDir, "files", len(archive.File))
	return nil
}

func entryPath(root, name string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(name))
	if dest != root && !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes target directory", name)
	}
	return dest, nil
}

func extractFile(f *zip.File, dest string) error {
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	reader, err := f.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
