package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, path string, content []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := archives.Gz{}.OpenWriter(f)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	srcDir := t.TempDir()
	onDisk := make(map[string]string, len(members))
	for name, content := range members {
		p := filepath.Join(srcDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		onDisk[p] = name
	}

	ctx := context.Background()
	files, err := archives.FilesFromDisk(ctx, nil, onDisk)
	require.NoError(t, err)

	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, archives.Zip{}.Archive(ctx, out, files))
}

func TestGunzip(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "chirps-v2.0.2020.01.01.tif.gz")
	dst := filepath.Join(tempDir, "chirps.tif")
	writeGzip(t, src, []byte("II*\x00 raster"))

	am := NewManager()
	require.NoError(t, am.Gunzip(context.Background(), src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "II*\x00 raster", string(got))
}

func TestGunzip_NotGzip(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "plain.tif.gz")
	dst := filepath.Join(tempDir, "out.tif")
	require.NoError(t, os.WriteFile(src, []byte("<html>not found</html>"), 0o644))

	err := NewManager().Gunzip(context.Background(), src, dst)
	require.Error(t, err)
	assert.NoFileExists(t, dst)
}

func TestGunzip_CanceledContext(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "a.gz")
	dst := filepath.Join(tempDir, "a")
	writeGzip(t, src, []byte("payload"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewManager().Gunzip(ctx, src, dst), context.Canceled)
	assert.NoFileExists(t, dst)
}

func TestExtractMember(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "PERSIANN_2020.zip")
	writeZip(t, zipPath, map[string]string{
		"readme.txt":            "CHRS",
		"PERSIANN_1d200101.tif": "raster",
	})

	tests := []struct {
		name       string
		member     string
		wantMember string
		wantErr    error
	}{
		{name: "first raster", member: "", wantMember: "PERSIANN_1d200101.tif"},
		{name: "named member", member: "readme.txt", wantMember: "readme.txt"},
		{name: "missing member", member: "nope.tif", wantErr: ErrMemberNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "out")
			got, err := NewManager().ExtractMember(context.Background(), zipPath, tt.member, dst)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.NoFileExists(t, dst)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMember, got)
			assert.FileExists(t, dst)
		})
	}
}

func TestExtractMember_NoRaster(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "empty.zip")
	writeZip(t, zipPath, map[string]string{"readme.txt": "no data"})

	_, err := NewManager().ExtractMember(context.Background(), zipPath, "", filepath.Join(tempDir, "out.tif"))
	require.ErrorIs(t, err, ErrMemberNotFound)
}
