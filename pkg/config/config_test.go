package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.LogFormat)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Settings.MaxConcurrent)
	assert.Equal(t, "rclone", cfg.MSWEP.RcloneCommand)
	assert.Equal(t, "GoogleDrive", cfg.MSWEP.Remote)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `settings:
  log_level: debug
  http_timeout: 45s
earthdata:
  username: alice
  password: s3cret
mswep:
  remote: gdrive
  flags: ["--drive-shared-with-me", "--fast-list"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeSecure))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, "alice", cfg.Earthdata.Username)
	assert.Equal(t, "gdrive", cfg.MSWEP.Remote)
	assert.Equal(t, []string{"--drive-shared-with-me", "--fast-list"}, cfg.MSWEP.Flags)
	// untouched sections keep their defaults
	assert.Equal(t, "rclone", cfg.MSWEP.RcloneCommand)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Settings.MaxConcurrent)
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Settings, cfg.Settings)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	require.ErrorIs(t, err, errors.ErrEmptyConfigPath)

	_, err = LoadConfigFromReader(strings.NewReader("settings: [not, a, map]"))
	require.ErrorIs(t, err, errors.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  log_level: loud\n"))
	require.ErrorIs(t, err, errors.ErrInvalidLogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("METEOSAT_EARTHDATA_TOKEN", "env-token")
	t.Setenv("METEOSAT_SETTINGS_LOG_LEVEL", "warn")
	t.Setenv("METEOSAT_MSWEP_FLAGS", "--a,--b")

	cfg, err := LoadConfigFromReader(strings.NewReader("settings:\n  log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Earthdata.Token)
	assert.Equal(t, "warn", cfg.Settings.LogLevel)
	assert.Equal(t, []string{"--a", "--b"}, cfg.MSWEP.Flags)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Earthdata.Password = "s3cret"
	cfg.Earthdata.Username = "alice"

	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fsutil.FileModeSecure), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(configPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Settings.LogLevel)
	assert.Equal(t, "alice", loaded.Earthdata.Username)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		errMsg  string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Settings.HTTPTimeout = -time.Second },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "http_timeout",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Settings.MaxConcurrent = 0 },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "max_concurrent",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Settings.LogFormat = "xml" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "log format",
		},
		{
			name:    "username without password",
			mutate:  func(c *Config) { c.Earthdata.Username = "alice" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "earthdata.password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSetAndGetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("settings.http_timeout", "90s"))
	require.NoError(t, cfg.SetValue("mswep.flags", "[--one, --two]"))
	require.NoError(t, cfg.SetValue("persiann.email", "me@example.org"))
	require.NoError(t, cfg.SetValue("settings.max_concurrent", "8"))

	assert.Equal(t, 90*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, 8, cfg.Settings.MaxConcurrent)

	v, err := cfg.GetValue("mswep.flags")
	require.NoError(t, err)
	assert.Equal(t, "--one,--two", v)

	v, err = cfg.GetValue("settings.http_timeout")
	require.NoError(t, err)
	assert.Equal(t, "1m30s", v)

	_, err = cfg.GetValue("settings.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.SetValue("nosection", "x"))
	assert.Error(t, cfg.SetValue("settings.max_concurrent", "many"))
}

func TestToMap(t *testing.T) {
	cfg := DefaultConfig()
	m := cfg.ToMap()

	assert.Equal(t, "info", m["settings.log_level"])
	assert.Equal(t, "GoogleDrive", m["mswep.remote"])
	assert.Contains(t, cfg.Keys(), "earthdata.token")
	assert.Contains(t, cfg.Keys(), "hooks.dir")
}

func TestDownloadOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.HTTPTimeout = time.Minute
	opts := cfg.DownloadOptions()
	assert.Equal(t, time.Minute, opts.Timeout)
	assert.Equal(t, cfg.Settings.UserAgent, opts.UserAgent)
}

func TestReadConfig_IgnoresEnv(t *testing.T) {
	t.Setenv("METEOSAT_EARTHDATA_TOKEN", "env-token")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("persiann:\n  email: a@b.org\n"), fsutil.FileModeSecure))

	cfg, err := ReadConfig(configPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Earthdata.Token)
	assert.Equal(t, "a@b.org", cfg.PERSIANN.Email)

	cfg, err = LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Earthdata.Token)
}
