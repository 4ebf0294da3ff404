package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"shelve/internal/faults"
)

//go:embed sample_config.yaml
var sampleConfig string

// DefaultConfigFile is the config path used when none is supplied.
const DefaultConfigFile = "config.yaml"

// Destination is one entry of the destinations mapping: a directory name (or
// path) and the extensions routed to it, in declaration order.
type Destination struct {
	Name       string
	Extensions []string
}

// Destinations keeps the mapping order found in the configuration document.
type Destinations []Destination

// UnmarshalYAML decodes a mapping node without losing key order.
func (d *Destinations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*d = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: destinations must be a mapping of directory to extensions", node.Line)
	}
	out := make(Destinations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var extensions []string
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&extensions); err != nil {
				return fmt.Errorf("line %d: destinations.%s: %w", value.Line, key.Value, err)
			}
		case yaml.ScalarNode:
			if value.Tag != "!!null" {
				extensions = []string{value.Value}
			}
		default:
			return fmt.Errorf("line %d: destinations.%s must be a list of extensions", value.Line, key.Value)
		}
		out = append(out, Destination{Name: key.Value, Extensions: extensions})
	}
	*d = out
	return nil
}

// Watch contains live-monitoring settings.
type Watch struct {
	SettleDelayMS   int `yaml:"settle_delay_ms" toml:"settle_delay_ms"`
	SettleMaxRounds int `yaml:"settle_max_rounds" toml:"settle_max_rounds"`
	QueueSize       int `yaml:"queue_size" toml:"queue_size"`
}

// SettleDelay returns the wait applied after a creation event before moving.
func (w Watch) SettleDelay() time.Duration {
	return time.Duration(w.SettleDelayMS) * time.Millisecond
}

// Collisions contains name collision settings.
type Collisions struct {
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`
}

// Paths contains directories owned by shelve itself.
type Paths struct {
	LogDir  string `yaml:"log_dir" toml:"log_dir"`
	DataDir string `yaml:"data_dir" toml:"data_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// History contains configuration for the outcome journal.
type History struct {
	Enabled       bool `yaml:"enabled" toml:"enabled"`
	RetentionDays int  `yaml:"retention_days" toml:"retention_days"`
}

// Config encapsulates all configuration values for shelve.
//
// Configuration sections:
//   - SourceFolder: the watched directory
//   - Destinations: ordered destination → extensions rules
//   - Watch: settle delay and queue sizing for live monitoring
//   - Collisions: bound on collision-free name attempts
//   - Paths: log and data directories
//   - Logging: log level, format and file name
//   - History: outcome journal toggle and retention
type Config struct {
	SourceFolder string       `yaml:"source_folder" toml:"source_folder"`
	Destinations Destinations `yaml:"destinations" toml:"-"`
	Watch        Watch        `yaml:"watch" toml:"watch"`
	Collisions   Collisions   `yaml:"collisions" toml:"collisions"`
	Paths        Paths        `yaml:"paths" toml:"paths"`
	Logging      Logging      `yaml:"logging" toml:"logging"`
	History      History      `yaml:"history" toml:"history"`
}

// Load locates, parses, normalizes and validates a configuration file. It
// returns the resolved path alongside the config. Every failure is tagged with
// faults.ErrConfiguration.
func Load(path string) (*Config, string, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, resolved, faults.Configf("config file not found at %s (create one with 'shelve config init')", resolved)
		}
		return nil, resolved, faults.Wrap(faults.ErrConfiguration, "config", "read", resolved, err)
	}

	cfg, err := Parse(data, formatFor(resolved))
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

// Parse decodes a configuration document in the given format ("yaml" or
// "toml") on top of the defaults, then normalizes and validates it.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case "toml":
		if err := decodeTOML(data, &cfg); err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "config", "parse toml", "", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		// An empty document decodes to io.EOF; validation names the missing fields.
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, faults.Wrap(faults.ErrConfiguration, "config", "parse yaml", "", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	var table struct {
		Destinations map[string][]string `toml:"destinations"`
	}
	if err := toml.Unmarshal(data, &table); err != nil {
		return err
	}
	names := make([]string, 0, len(table.Destinations))
	for name := range table.Destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	cfg.Destinations = make(Destinations, 0, len(names))
	for _, name := range names {
		cfg.Destinations = append(cfg.Destinations, Destination{
			Name:       name,
			Extensions: slices.Clone(table.Destinations[name]),
		})
	}
	return nil
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(strings.TrimSpace(path))
		if err != nil {
			return "", faults.Wrap(faults.ErrConfiguration, "config", "resolve path", path, err)
		}
		return expanded, nil
	}

	projectPath, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return "", faults.Wrap(faults.ErrConfiguration, "config", "resolve path", DefaultConfigFile, err)
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, nil
	}
	userPath := UserConfigPath()
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, nil
	}
	return projectPath, nil
}

// UserConfigPath returns the per-user configuration location.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, DefaultConfigFile)
}

// LogPath returns the absolute path of the log file.
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.Paths.LogDir, c.Logging.File)
}

// HistoryPath returns the location of the outcome journal database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// EnsureDirectories creates the directories shelve writes its own state to.
// Destination directories are created on demand by the mover instead.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.LogPath())}
	if c.History.Enabled {
		dirs = append(dirs, c.Paths.DataDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return faults.Wrap(faults.ErrConfiguration, "config", "create directory", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
