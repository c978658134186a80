// Package archive unpacks compressed product payloads: gzip-compressed rasters
// (CHIRPS) and zip bundles (PERSIANN).
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/hydromet/meteosat/pkg/fsutil"
	"github.com/mholt/archives"
)

// ErrMemberNotFound is returned when a zip payload does not contain the
// requested file.
var ErrMemberNotFound = errors.New("archive member not found")

// rasterExtensions are the members picked from a zip when none is named.
var rasterExtensions = []string{".tif", ".tiff"}

// Manager handles decompression of downloaded payloads.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Gunzip decompresses the gzip file at src into dst.
func (am *Manager) Gunzip(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open compressed file: %w", err)
	}
	defer func() { _ = in.Close() }()

	rc, err := archives.Gz{}.OpenReader(in)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream %s: %w", src, err)
	}
	defer func() { _ = rc.Close() }()

	return am.writeStream(ctx, rc, dst)
}

// ExtractMember extracts one file from the zip archive at archivePath into
// destPath. If member is empty the first raster (.tif/.tiff) entry is used.
// It returns the name of the extracted member.
func (am *Manager) ExtractMember(ctx context.Context, archivePath, member, destPath string) (string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if member == "" {
		member, err = findRaster(fsys)
		if err != nil {
			return "", err
		}
	}

	srcFile, err := fsys.Open(member)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, archivePath)
		}
		return "", fmt.Errorf("failed to open member %s: %w", member, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := am.writeStream(ctx, srcFile, destPath); err != nil {
		return "", err
	}
	return member, nil
}

// findRaster walks the archive and returns the first raster entry.
func findRaster(fsys fs.FS) (string, error) {
	var found string
	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		for _, want := range rasterExtensions {
			if ext == want {
				found = p
				return fs.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("failed to list archive: %w", walkErr)
	}
	if found == "" {
		return "", fmt.Errorf("%w: no raster in archive", ErrMemberNotFound)
	}
	return found, nil
}

// writeStream copies r to dst, removing dst again on failure.
func (am *Manager) writeStream(ctx context.Context, r io.Reader, dst string) error {
	if err := fsutil.EnsureFileDir(dst); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: r})
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
