// Package watcher monitors the source directory for newly created files and
// hands them to the organizer pipeline one at a time.
//
// Subscribe registers the fsnotify watch and starts buffering events; Run
// drains them through a single consumer, applying a settle delay before each
// move so producers can finish writing. The watcher moves from Idle to Running
// on Subscribe and to Stopped when Run returns or Close is called.
package watcher
