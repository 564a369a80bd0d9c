// Package cli provides the gophdrive command-line client.
//
// It wires configuration, the local session database, the storage gateway,
// the file catalog and the upload orchestrator, and exposes them both as
// cobra subcommands (see NewRootCmd) and as an interactive shell with an
// online/offline indicator (see App.Shell and runREPL).
//
// Key features:
//   - Register / Login / Logout / WhoAmI, with the session kept across runs
//   - List files with filtering, sorting and table/json/yaml output
//   - Upload batches with per-file progress and retry of failed files
//   - Download under the original file name
//   - Delete with confirmation
package cli
