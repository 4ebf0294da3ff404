// Package logging assembles structured slog loggers and formatting helpers used
// across shelve.
//
// It owns the console and JSON handlers, fans records out to the log file and
// the terminal with independent levels, and stamps every record with the run
// identifier of the current process. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape and routing.
package logging
