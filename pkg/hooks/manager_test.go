package hooks_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hydromet/meteosat/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() hooks.HookContext {
	return hooks.HookContext{
		Product:  "CHIRPS",
		Date:     "2020-01-01T00:00:00Z",
		Timestep: "daily",
		Source:   "https://data.chc.ucsb.edu/products/CHIRPS-2.0/x.tif.gz",
		OutPath:  "/data/chirps.tif",
		Vars:     map[string]interface{}{"bytes": int64(1024)},
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{name: "empty script", script: `// nothing to do`},
		{
			name: "variables are visible",
			script: `
				if product != "CHIRPS" || timestep != "daily" || bytes != 1024 || outPath == "" || source == "" || date == "" {
					err = "unexpected context"
				}`,
		},
		{name: "script vetoes", script: `err = "already downloaded"`, wantErr: hooks.ErrHookScript},
		{name: "compile error", script: `non_existent_function()`, wantErr: hooks.ErrHookExecution},
		{
			name: "stdlib imports",
			script: `
				text := import("text")
				if !text.has_suffix(outPath, ".tif") { err = "bad suffix" }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hooks.NewHookManager()
			require.NoError(t, m.AddHook(hooks.Hook{Type: hooks.PreDownload, Content: tt.script}))

			err := m.Execute(context.Background(), hooks.PreDownload, testContext())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExecute_NoHookIsNoop(t *testing.T) {
	m := hooks.NewHookManager()
	assert.NoError(t, m.Execute(context.Background(), hooks.PostDownload, testContext()))

	var nilManager *hooks.Manager
	assert.NoError(t, nilManager.Execute(context.Background(), hooks.PostDownload, testContext()))
}

func TestExecute_ContextTimeout(t *testing.T) {
	m := hooks.NewHookManager()
	require.NoError(t, m.AddHook(hooks.Hook{Type: hooks.PreDownload, Content: `for {}`}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Execute(ctx, hooks.PreDownload, testContext())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAddRemoveHook(t *testing.T) {
	m := hooks.NewHookManager()

	require.ErrorIs(t, m.AddHook(hooks.Hook{Content: "x"}), hooks.ErrHookTypeEmpty)
	require.ErrorIs(t, m.AddHook(hooks.Hook{Type: "pre-install", Content: "x"}), hooks.ErrHookLoad)

	require.NoError(t, m.AddHook(hooks.Hook{Type: hooks.PostDownload, Content: "// ok"}))
	assert.True(t, m.HasHook(hooks.PostDownload))

	require.NoError(t, m.RemoveHook(hooks.PostDownload))
	assert.False(t, m.HasHook(hooks.PostDownload))
	assert.ErrorIs(t, m.RemoveHook(""), hooks.ErrHookTypeEmpty)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-download.tengo"), []byte(`// pre`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-install.tengo"), []byte(`// ignored`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	m := hooks.NewHookManager()
	require.NoError(t, hooks.LoadDir(m, dir))
	assert.True(t, m.HasHook(hooks.PreDownload))
	assert.False(t, m.HasHook(hooks.PostDownload))

	require.NoError(t, hooks.LoadDir(m, filepath.Join(dir, "missing")))
}

func TestLoadFile_Missing(t *testing.T) {
	err := hooks.LoadFile(hooks.NewHookManager(), hooks.PreDownload, filepath.Join(t.TempDir(), "nope.tengo"))
	require.ErrorIs(t, err, hooks.ErrHookLoad)
}

func TestHookTemplate(t *testing.T) {
	assert.Contains(t, hooks.HookTemplate(hooks.PreDownload), "Pre-download hook")
	assert.Contains(t, hooks.HookTemplate(hooks.PostDownload), "Post-download hook")
	assert.Contains(t, hooks.HookTemplate("unknown"), "Unknown hooks type")
}
