// Package faults defines the error markers shared by the organizer pipeline.
//
// Every failure that crosses a package boundary is wrapped with one of the
// exported sentinels so callers can classify it with errors.Is: configuration
// and subscription failures abort startup, while I/O, naming and vanished-file
// failures are reported per file and never stop the scanner or watcher.
package faults
