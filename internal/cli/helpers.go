package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/config"
	"github.com/hydromet/meteosat/pkg/fsutil"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// loadConfig loads the configuration, applies the global flags and
// initializes logging from the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if LogFormat != nil && *LogFormat != "" {
		if _, ok := logger.ParseFormat(*LogFormat); !ok {
			return nil, fmt.Errorf("invalid --log-format %q (valid: text, json)", *LogFormat)
		}
		cfg.Settings.LogFormat = *LogFormat
	}

	format, _ := logger.ParseFormat(cfg.Settings.LogFormat)
	logger.InitLogger(cfg.Settings.LogLevel, format)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := fsutil.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig return a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// Accepted --date layouts, most specific first.
var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseDate reads a UTC date in one of dateLayouts.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, YYYY-MM-DDTHH:MM, YYYY-MM or YYYY)", s)
}
