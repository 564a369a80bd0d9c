// Package config loads runtime configuration for the gophdrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file selected with --config.
//  3. A .env file (--env-file, default ./.env when present); its values are
//     exported to the process environment without overriding it.
//  4. Environment variables prefixed with GOPHDRIVE_, e.g.
//     GOPHDRIVE_SERVER_URL or GOPHDRIVE_UPLOAD_CONCURRENCY.
//  5. Command-line flags, which override everything else.
//
// # YAML schema
//
// Durations are Go duration strings:
//
//	server_url: http://localhost:8080/api
//	request_timeout: 30s
//	data_dir: /home/me/.config/gophdrive
//	upload_concurrency: 1
//	catalog_ttl: 1m
//	online_check_interval: 3s
//	log_level: info
//	log_format: text
//	metrics_addr: ""
package config
