package hooks

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hydromet/meteosat/pkg/errors"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadFile reads the script at path and registers it as hookType.
func LoadFile(manager *Manager, hookType HookType, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrHookLoad, "error reading hooks file %s: %v", path, err)
	}
	return manager.AddHook(Hook{Type: hookType, Content: string(content)})
}

// LoadDir registers every <hook-type>.tengo script found in dir. Unknown file
// names are skipped. A missing directory is not an error.
func LoadDir(manager *Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(ErrHookLoad, "failed to read hooks directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}
		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !slices.Contains(Types, hookType) {
			continue
		}
		if err := LoadFile(manager, hookType, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// HookTemplate generates a template for a hooks script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreDownload:
		return `// Pre-download hook
// Runs after the request is validated and located, before any transfer.
// Available variables:
// - product: string - product name, e.g. "CHIRPS"
// - date: string - requested date (RFC 3339)
// - timestep: string - requested timestep
// - source: string - URL or sync remote the file comes from
// - outPath: string - destination path
// Set err to a non-empty string to cancel the download.

// Example: skip files that already exist
/*
os := import("os")
if !is_error(os.stat(outPath)) {
    err = "already downloaded: " + outPath
}
*/`

	case PostDownload:
		return `// Post-download hook
// Runs after the file has been moved to outPath.
// Available variables: same as pre-download, plus
// - bytes: int - size of the downloaded file

// Example: log the result
/*
fmt := import("fmt")
fmt.println(product, " ", date, " -> ", outPath, " (", bytes, " bytes)")
*/`

	default:
		return "// Unknown hooks type: " + string(hookType)
	}
}
