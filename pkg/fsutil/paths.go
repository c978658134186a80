package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the name of the application used in paths
	AppName = "meteosat"

	// ConfigFileName is the default config file name inside the config dir.
	ConfigFileName = "config.yaml"
)

// GetConfigDir returns the platform-specific config directory for the application
// On Linux: $XDG_CONFIG_HOME/meteosat or ~/.config/meteosat
// On macOS: ~/Library/Application Support/meteosat
// On Windows: %AppData%\meteosat
func GetConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", errors.New("could not determine user config directory")
	}
	return filepath.Join(base, AppName), nil
}

// GetDefaultConfigPath returns the path of the default config file.
func GetDefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
