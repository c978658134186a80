// Package config provides configuration management for the meteosat command.
// It handles loading, validating and saving the YAML configuration file and
// lets METEOSAT_* environment variables override any value read from it.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/fsutil"
	meteohttp "github.com/hydromet/meteosat/pkg/http"
	"github.com/hydromet/meteosat/pkg/mswep"
	"github.com/hydromet/meteosat/pkg/persiann"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. METEOSAT_EARTHDATA_TOKEN.
const EnvPrefix = "METEOSAT"

// Config represents the application configuration.
type Config struct {
	Settings  Settings  `yaml:"settings" envconfig:"SETTINGS"`
	Earthdata Earthdata `yaml:"earthdata" envconfig:"EARTHDATA"`
	MSWEP     MSWEP     `yaml:"mswep" envconfig:"MSWEP"`
	PERSIANN  PERSIANN  `yaml:"persiann" envconfig:"PERSIANN"`
	Hooks     Hooks     `yaml:"hooks" envconfig:"HOOKS"`
	Endpoints Endpoints `yaml:"endpoints" envconfig:"ENDPOINTS"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	UserAgent   string        `yaml:"user_agent,omitempty" envconfig:"USER_AGENT"`

	// Number of files fetched at once by range downloads
	MaxConcurrent int `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT"`

	// Output settings
	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"` // text, json
}

// Earthdata holds NASA Earthdata Login credentials for IMERG. A token takes
// precedence over the username and password.
type Earthdata struct {
	Username string `yaml:"username,omitempty" envconfig:"USERNAME"`
	Password string `yaml:"password,omitempty" envconfig:"PASSWORD"`
	Token    string `yaml:"token,omitempty" envconfig:"TOKEN"`
}

// MSWEP configures the rclone sync of the historical MSWEP archive.
type MSWEP struct {
	RcloneCommand string   `yaml:"rclone_command" envconfig:"RCLONE_COMMAND"`
	Remote        string   `yaml:"remote" envconfig:"REMOTE"`
	Flags         []string `yaml:"flags,omitempty" envconfig:"FLAGS"`
	NRTBaseURL    string   `yaml:"nrt_base_url" envconfig:"NRT_BASE_URL"`
}

// PERSIANN configures the CHRS portal.
type PERSIANN struct {
	Email string `yaml:"email" envconfig:"EMAIL"`
}

// Hooks configures user scripts run around each download.
type Hooks struct {
	Dir string `yaml:"dir,omitempty" envconfig:"DIR"`
}

// Endpoints override the default server of a source, e.g. to use a mirror.
// Empty values keep the built-in endpoint.
type Endpoints struct {
	CHIRPS   string `yaml:"chirps,omitempty" envconfig:"CHIRPS"`
	CMORPH   string `yaml:"cmorph,omitempty" envconfig:"CMORPH"`
	IMERG    string `yaml:"imerg,omitempty" envconfig:"IMERG"`
	PERSIANN string `yaml:"persiann,omitempty" envconfig:"PERSIANN"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultMaxConcurrent is the default number of parallel range downloads.
	DefaultMaxConcurrent = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	hooksDir := ""
	if dir, err := fsutil.GetConfigDir(); err == nil {
		hooksDir = filepath.Join(dir, "hooks")
	}

	return &Config{
		Settings: Settings{
			HTTPTimeout:   DefaultHTTPTimeout,
			UserAgent:     meteohttp.DefaultUserAgent,
			MaxConcurrent: DefaultMaxConcurrent,
			LogLevel:      "info",
			LogFormat:     string(logger.FormatText),
		},
		MSWEP: MSWEP{
			RcloneCommand: download.DefaultRcloneCommand,
			Remote:        mswep.DefaultRemote,
			Flags:         append([]string(nil), mswep.DefaultSyncFlags...),
			NRTBaseURL:    mswep.DefaultNRTBaseURL,
		},
		PERSIANN: PERSIANN{Email: persiann.DefaultEmail},
		Hooks:    Hooks{Dir: hooksDir},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func LoadConfig(path string) (*Config, error) {
	return load(path, true)
}

// ReadConfig loads the file as written, without environment overrides. Use
// it before SaveConfig so overrides are not persisted.
func ReadConfig(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, env bool) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	data, err := os.ReadFile(absPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	return parse(data, env)
}

// LoadConfigFromReader loads configuration from an io.Reader, applying
// environment overrides.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}
	return parse(data, true)
}

func parse(data []byte, env bool) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if env {
		if err := config.ApplyEnv(); err != nil {
			return nil, err
		}
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides values with METEOSAT_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return nil
}

// SaveConfig saves configuration to a file. The file may carry credentials
// and is written with owner-only permissions.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	file, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+"-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	tempPath := file.Name()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	if err := os.Chmod(tempPath, fsutil.FileModeSecure); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	if c.MSWEP.RcloneCommand == "" {
		return fmt.Errorf("%w: mswep.rclone_command must not be empty", errors.ErrConfigValidation)
	}
	if c.Earthdata.Username != "" && c.Earthdata.Password == "" {
		return fmt.Errorf("%w: earthdata.password is required with earthdata.username", errors.ErrConfigValidation)
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http_timeout must not be negative", errors.ErrConfigValidation)
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max_concurrent must be at least 1", errors.ErrConfigValidation)
	}
	if _, ok := logger.ParseFormat(s.LogFormat); !ok {
		return fmt.Errorf("%w: invalid log format %q (valid: text, json)", errors.ErrConfigValidation, s.LogFormat)
	}
	if _, ok := logger.ParseLevel(s.LogLevel); !ok {
		return fmt.Errorf("%w: %q (valid: debug, info, warn, error)", errors.ErrInvalidLogLevel, s.LogLevel)
	}
	return nil
}

// DownloadOptions returns the fetcher options described by the settings.
func (c *Config) DownloadOptions() download.Options {
	return download.Options{
		Timeout:   c.Settings.HTTPTimeout,
		UserAgent: c.Settings.UserAgent,
	}
}

// applyDefaults fills in values an explicit empty entry in the file cleared.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.MSWEP.RcloneCommand == "" {
		c.MSWEP.RcloneCommand = defaults.MSWEP.RcloneCommand
	}
	if c.MSWEP.Remote == "" {
		c.MSWEP.Remote = defaults.MSWEP.Remote
	}
	if c.MSWEP.NRTBaseURL == "" {
		c.MSWEP.NRTBaseURL = defaults.MSWEP.NRTBaseURL
	}
	if c.PERSIANN.Email == "" {
		c.PERSIANN.Email = defaults.PERSIANN.Email
	}
}
