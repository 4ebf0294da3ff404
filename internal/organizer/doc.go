// Package organizer moves classified files into their destination directories.
//
// A FileTask produced by the scanner or the watcher flows through Pipeline:
// the rule table picks a destination, Mover resolves a collision-free name and
// relocates the file (or only previews it in dry-run mode), and the resulting
// Outcome is handed to a Reporter. Both producers share the same Pipeline, so
// backlog and live files are treated identically.
package organizer
