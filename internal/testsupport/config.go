package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// an existing source folder, log and data directories, and a small
// Pictures/Docs rule set. The settle delay is shortened for live tests.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.SourceFolder = filepath.Join(base, "inbox")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Destinations = config.Destinations{
		{Name: "Pictures", Extensions: []string{".jpg", ".png"}},
		{Name: "Docs", Extensions: []string{".pdf"}},
	}
	cfgVal.Watch.SettleDelayMS = 20
	cfgVal.Watch.SettleMaxRounds = 2
	if err := os.MkdirAll(cfgVal.SourceFolder, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDestinations replaces the rule set on the test config.
func WithDestinations(dests ...config.Destination) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Destinations = config.Destinations(dests)
	}
}

// WithHistory toggles the outcome journal.
func WithHistory(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.SourceFolder)
}
