// Package rules turns the configured destinations into an immutable rule table
// and classifies file names against it.
//
// Extensions are canonicalized once (trimmed, lowercased, leading dot) and
// indexed in a map so classification is a single lookup. An extension claimed
// by two destinations is a configuration error.
package rules
