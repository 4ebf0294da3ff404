package config

import (
	"strings"

	"shelve/internal/faults"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDestinations()
	c.normalizeWatch()
	c.normalizeLogging()
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.SourceFolder = strings.TrimSpace(c.SourceFolder)
	if c.SourceFolder, err = expandPath(c.SourceFolder); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "source_folder", "", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir()
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "paths.log_dir", "", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "paths.data_dir", "", err)
	}
	return nil
}

// normalizeDestinations trims names and expands home shorthand. Relative
// names stay relative; the rule table resolves them against the source folder.
func (c *Config) normalizeDestinations() {
	for i := range c.Destinations {
		name := strings.TrimSpace(c.Destinations[i].Name)
		if strings.HasPrefix(name, "~") {
			if expanded, err := expandPath(name); err == nil {
				name = expanded
			}
		}
		c.Destinations[i].Name = name
		exts := make([]string, 0, len(c.Destinations[i].Extensions))
		for _, ext := range c.Destinations[i].Extensions {
			exts = append(exts, strings.TrimSpace(ext))
		}
		c.Destinations[i].Extensions = exts
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.SettleMaxRounds == 0 {
		c.Watch.SettleMaxRounds = defaultSettleMaxRounds
	}
	if c.Watch.QueueSize == 0 {
		c.Watch.QueueSize = defaultQueueSize
	}
	if c.Collisions.MaxAttempts == 0 {
		c.Collisions.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File == "" {
		c.Logging.File = defaultLogFile
	}
}
