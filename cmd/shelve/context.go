package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelve/internal/config"
)

type commandContext struct {
	configFlag    *string
	verbose       *bool
	dryRun        *bool
	noInitialScan *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func (c *commandContext) configPathArg(cmd *cobra.Command) string {
	if c.configFlag == nil {
		return ""
	}
	// An untouched default falls back to the per-user location when
	// ./config.yaml is absent.
	if flag := cmd.Flags().Lookup("config-file"); flag != nil && !flag.Changed {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, err := config.Load(c.configPathArg(cmd))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) isVerbose() bool { return c.verbose != nil && *c.verbose }

func (c *commandContext) isDryRun() bool { return c.dryRun != nil && *c.dryRun }

func (c *commandContext) skipInitialScan() bool { return c.noInitialScan != nil && *c.noInitialScan }

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func printSummary(out io.Writer, label string, moved, skipped, failed int, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Fprintf(out, "%s%s: %d moved, %d skipped, %d failed\n", prefix, label, moved, skipped, failed)
}
