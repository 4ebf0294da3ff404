package config

import (
	"strings"

	"shelve/internal/faults"
)

// Validate ensures the configuration is usable. Filesystem checks on the
// source folder happen when the rule table is built.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.SourceFolder == "" {
		return faults.Configf("source_folder is required")
	}
	return nil
}

func (c *Config) validateDestinations() error {
	if len(c.Destinations) == 0 {
		return faults.Configf("destinations must declare at least one directory")
	}
	seen := make(map[string]struct{}, len(c.Destinations))
	for _, dest := range c.Destinations {
		if dest.Name == "" {
			return faults.Configf("destinations: directory name must not be empty")
		}
		if _, dup := seen[dest.Name]; dup {
			return faults.Configf("destinations.%s is declared more than once", dest.Name)
		}
		seen[dest.Name] = struct{}{}
		if len(dest.Extensions) == 0 {
			return faults.Configf("destinations.%s must list at least one extension", dest.Name)
		}
		for _, ext := range dest.Extensions {
			if strings.Trim(ext, ".") == "" {
				return faults.Configf("destinations.%s contains an empty extension", dest.Name)
			}
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.SettleDelayMS < 0 {
		return faults.Configf("watch.settle_delay_ms must be >= 0")
	}
	if c.Watch.SettleMaxRounds < 1 {
		return faults.Configf("watch.settle_max_rounds must be positive")
	}
	if c.Watch.QueueSize < 1 {
		return faults.Configf("watch.queue_size must be positive")
	}
	if c.Collisions.MaxAttempts < 2 {
		return faults.Configf("collisions.max_attempts must be at least 2")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return faults.Configf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}
