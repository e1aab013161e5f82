package testsupport

import (
	"path/filepath"
	"testing"

	"shelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. The API bind uses an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.RulesFile = filepath.Join(base, "rules.json")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfgVal)
	}
	return &cfgVal
}

// WithWorkers overrides the organizer worker count.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Organizer.Workers = n
	}
}

// WithNtfyTopic enables push notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(c *config.Config) {
		c.Notifications.NtfyTopic = topic
	}
}
