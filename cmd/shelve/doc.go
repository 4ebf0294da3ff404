// Package main hosts the shelve CLI entrypoint and command graph.
//
// The root command organizes the configured source folder: it sweeps the
// backlog once and then keeps watching for new files until interrupted.
// Subcommands run a single scan, scaffold or validate configuration, and show
// the outcome history. Configuration resolution and logger setup live here so
// the internal packages receive ready-made values.
package main
