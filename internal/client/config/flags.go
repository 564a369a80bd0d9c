package config

import (
	"time"

	"github.com/spf13/cobra"
)

// Flag names shared by every command.
const (
	FlagConfig         = "config"
	FlagEnvFile        = "env-file"
	FlagServer         = "server"
	FlagTimeout        = "timeout"
	FlagDataDir        = "data-dir"
	FlagConcurrency    = "concurrency"
	FlagCatalogTTL     = "catalog-ttl"
	FlagOnlineInterval = "online-interval"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagMetricsAddr    = "metrics-addr"
)

// BindFlags registers the configuration flags as persistent flags of cmd.
// Their defaults are only shown in help; a flag overrides other sources
// only when the user sets it.
func BindFlags(cmd *cobra.Command) {
	var d Config
	d.LoadDefaults()

	f := cmd.PersistentFlags()
	f.String(FlagConfig, "", "YAML configuration file")
	f.String(FlagEnvFile, "", "dotenv file (default ./.env when present)")
	f.StringP(FlagServer, "s", d.ServerURL, "storage service base URL")
	f.Duration(FlagTimeout, d.RequestTimeout, "request timeout")
	f.String(FlagDataDir, d.DataDir, "directory for the local database and downloads")
	f.Int(FlagConcurrency, d.UploadConcurrency, "uploads in flight at once")
	f.Duration(FlagCatalogTTL, d.CatalogTTL, "lifetime of the file lookup index")
	f.Duration(FlagOnlineInterval, d.OnlineCheckInterval, "online status check interval (shell)")
	f.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	f.String(FlagLogFormat, d.LogFormat, "log format: text or json")
	f.String(FlagMetricsAddr, d.MetricsAddr, "serve Prometheus metrics on this address while the shell runs")
}

// OptionsFromFlags reads the source-selection flags.
func OptionsFromFlags(fs FlagSource) Options {
	opts := Options{Flags: fs}
	opts.ConfigFile, _ = fs.GetString(FlagConfig)
	opts.EnvFile, _ = fs.GetString(FlagEnvFile)
	return opts
}

func applyFlags(cfg *Config, fs FlagSource) error {
	strs := map[string]*string{
		FlagServer:      &cfg.ServerURL,
		FlagDataDir:     &cfg.DataDir,
		FlagLogLevel:    &cfg.LogLevel,
		FlagLogFormat:   &cfg.LogFormat,
		FlagMetricsAddr: &cfg.MetricsAddr,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	durs := map[string]*time.Duration{
		FlagTimeout:        &cfg.RequestTimeout,
		FlagCatalogTTL:     &cfg.CatalogTTL,
		FlagOnlineInterval: &cfg.OnlineCheckInterval,
	}
	for name, dst := range durs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(FlagConcurrency) {
		v, err := fs.GetInt(FlagConcurrency)
		if err != nil {
			return err
		}
		cfg.UploadConcurrency = v
	}
	return nil
}
