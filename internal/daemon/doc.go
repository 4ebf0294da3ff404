// Package daemon coordinates one shelve process: it builds the rule table
// from configuration, wires the organizer pipeline to its reporters, and runs
// the backlog scan followed by live watching until the context is cancelled.
//
// The watcher subscribes before the scan starts, so files created while the
// backlog is being organized are queued and handled once the scan finishes.
// Keep per-file behaviour in the organizer; this package only owns startup,
// ordering and shutdown.
package daemon
