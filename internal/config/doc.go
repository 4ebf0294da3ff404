// Package config loads, normalizes, and validates shelve configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads YAML or TOML documents, and preserves the declaration
// order of the destinations mapping so rule tables are built
// deterministically. The Config type centralizes every knob the organizer
// daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and configuration errors tagged with
// faults.ErrConfiguration.
package config
