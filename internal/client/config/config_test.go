package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func newFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Parse(args))
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://localhost:8080/api", c.ServerURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 1, c.UploadConcurrency)
	assert.Equal(t, time.Minute, c.CatalogTTL)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.NotEmpty(t, c.DataDir)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	cfg, err := LoadConfig(Options{})
	require.NoError(t, err)
	if diff := cmp.Diff(defaults(), *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	p := writeFile(t, "cfg.yaml", `
server_url: https://drive.example.com/api
request_timeout: 5s
upload_concurrency: 3
catalog_ttl: 10s
log_format: json
`)

	cfg, err := LoadConfig(Options{ConfigFile: p})
	require.NoError(t, err)

	want := defaults()
	want.ServerURL = "https://drive.example.com/api"
	want.RequestTimeout = 5 * time.Second
	want.UploadConcurrency = 3
	want.CatalogTTL = 10 * time.Second
	want.LogFormat = "json"
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "cfg.yaml", "server_url: https://file.example.com/api\nupload_concurrency: 2\n")
	t.Setenv("GOPHDRIVE_SERVER_URL", "https://env.example.com/api")
	t.Setenv("GOPHDRIVE_ONLINE_CHECK_INTERVAL", "7s")

	cfg, err := LoadConfig(Options{ConfigFile: p})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.ServerURL)
	assert.Equal(t, 2, cfg.UploadConcurrency)
	assert.Equal(t, 7*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_DotenvFile(t *testing.T) {
	const key = "GOPHDRIVE_LOG_LEVEL"
	p := writeFile(t, "app.env", key+"=debug\n")
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	cfg, err := LoadConfig(Options{EnvFile: p})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	p := writeFile(t, "app.env", "GOPHDRIVE_LOG_LEVEL=debug\n")
	t.Setenv("GOPHDRIVE_LOG_LEVEL", "error")

	cfg, err := LoadConfig(Options{EnvFile: p})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	p := writeFile(t, "cfg.yaml", "server_url: https://file.example.com/api\n")
	t.Setenv("GOPHDRIVE_UPLOAD_CONCURRENCY", "4")

	cmd := newFlags(t, "--config", p, "-s", "http://flag.example.com/api",
		"--concurrency", "8", "--timeout", "2s", "--metrics-addr", ":9100")
	opts := OptionsFromFlags(cmd.PersistentFlags())
	require.Equal(t, p, opts.ConfigFile)

	cfg, err := LoadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example.com/api", cfg.ServerURL)
	assert.Equal(t, 8, cfg.UploadConcurrency)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("GOPHDRIVE_SERVER_URL", "https://env.example.com/api")

	cmd := newFlags(t)
	cfg, err := LoadConfig(OptionsFromFlags(cmd.PersistentFlags()))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.ServerURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"relative url", func(c *Config) { c.ServerURL = "/api" }},
		{"ftp url", func(c *Config) { c.ServerURL = "ftp://x/api" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero concurrency", func(c *Config) { c.UploadConcurrency = 0 }},
		{"negative ttl", func(c *Config) { c.CatalogTTL = -time.Second }},
		{"zero interval", func(c *Config) { c.OnlineCheckInterval = 0 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_InvalidValueRejected(t *testing.T) {
	t.Setenv("GOPHDRIVE_UPLOAD_CONCURRENCY", "0")
	_, err := LoadConfig(Options{})
	require.ErrorContains(t, err, "upload_concurrency")
}

func TestPaths(t *testing.T) {
	c := Config{DataDir: "/tmp/gd"}
	assert.Equal(t, filepath.Join("/tmp/gd", "gophdrive.db"), c.DBPath())
	assert.Equal(t, filepath.Join("/tmp/gd", "downloads"), c.DownloadDir())
}
