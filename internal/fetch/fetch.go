// Package fetch downloads documentation archives and discovers package
// documentation on the Unity documentation site.
package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// Fetcher downloads and unpacks documentation archives.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a Fetcher. timeout bounds a whole archive download; the
// offline documentation zip runs to several hundred megabytes, so callers
// should pass minutes, not seconds.
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// DownloadArchive streams url into destPath. The file is written to a
// temporary sibling and renamed on success, so an interrupted download
// never leaves a truncated archive behind.
func (f *Fetcher) DownloadArchive(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to create download directory", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return uerrors.NetworkError("failed to build download request", err)
	}

	f.logger.Info("downloading archive", slog.String("url", url))
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return uerrors.New(uerrors.ErrCodeNetworkTimeout,
				fmt.Sprintf("download timed out after %s", f.client.Timeout), err).
				WithSuggestion("raise fetch.timeout in the configuration")
		}
		return uerrors.NetworkError("download failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return uerrors.NetworkError(
			fmt.Sprintf("download failed: %s returned %s", url, resp.Status), nil).
			WithDetail("status", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to create temporary file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return uerrors.NetworkError("download interrupted", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to move downloaded archive into place", err)
	}

	f.logger.Info("archive downloaded",
		slog.String("path", destPath),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// ExtractZip unpacks zipPath under destDir and returns the number of files
// written. Entries escaping destDir are rejected rather than skipped: an
// archive carrying traversal paths is not trustworthy.
func (f *Fetcher) ExtractZip(zipPath, destDir string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, uerrors.New(uerrors.ErrCodeArchiveInvalid,
			fmt.Sprintf("failed to open archive %s", zipPath), err)
	}
	defer func() { _ = zr.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to create extraction directory", err)
	}

	count := 0
	for _, entry := range zr.File {
		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return count, err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, uerrors.New(uerrors.ErrCodeFilePermission,
					"failed to create directory", err)
			}
			continue
		}

		if err := extractEntry(entry, target); err != nil {
			return count, err
		}
		count++
	}

	f.logger.Info("archive extracted",
		slog.String("dest", destDir),
		slog.Int("files", count))
	return count, nil
}

// FetchDocs downloads the documentation archive for a version and unpacks
// it under destDir. The archive itself is removed after extraction.
func (f *Fetcher) FetchDocs(ctx context.Context, url, destDir string) (int, error) {
	zipPath := destDir + ".zip"
	if err := f.DownloadArchive(ctx, url, zipPath); err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(zipPath) }()

	return f.ExtractZip(zipPath, destDir)
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return uerrors.New(uerrors.ErrCodeFilePermission,
			"failed to create directory", err)
	}

	src, err := entry.Open()
	if err != nil {
		return uerrors.New(uerrors.ErrCodeArchiveInvalid,
			fmt.Sprintf("failed to read archive entry %s", entry.Name), err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return uerrors.New(uerrors.ErrCodeFilePermission,
			fmt.Sprintf("failed to create %s", target), err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return uerrors.New(uerrors.ErrCodeArchiveInvalid,
			fmt.Sprintf("failed to extract %s", entry.Name), err)
	}
	return nil
}

// safeJoin joins an archive entry name under dir, rejecting traversal.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", uerrors.New(uerrors.ErrCodeArchiveInvalid,
			fmt.Sprintf("archive entry escapes extraction directory: %s", name), nil)
	}
	return target, nil
}
