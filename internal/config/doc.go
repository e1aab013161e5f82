// Package config loads, validates, and normalizes the shelf daemon
// configuration from TOML. The routing rule document lives in package
// rules; this file covers daemon-level settings only (paths, the API
// bind address, ollama connection details, watcher timing, logging).
package config
