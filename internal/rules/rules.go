package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shelve/internal/config"
	"shelve/internal/faults"
)

var lower = cases.Lower(language.Und)

// Declaration is one destination as written in configuration.
type Declaration struct {
	Name       string
	Extensions []string
}

// Entry is a resolved destination directory with its canonical extensions in
// declaration order.
type Entry struct {
	Destination string
	Extensions  []string
}

// Table is the read-only rule table shared by every producer.
type Table struct {
	source  string
	entries []Entry
	byExt   map[string]string
}

// FromConfig builds the table for a loaded configuration.
func FromConfig(cfg *config.Config) (*Table, error) {
	if cfg == nil {
		return nil, faults.Configf("rules: config is required")
	}
	decls := make([]Declaration, 0, len(cfg.Destinations))
	for _, dest := range cfg.Destinations {
		decls = append(decls, Declaration{Name: dest.Name, Extensions: dest.Extensions})
	}
	return Build(cfg.SourceFolder, decls)
}

// Build resolves destinations against sourceDir and indexes extensions.
// Absolute destination names are used verbatim; anything else becomes a child
// of sourceDir.
func Build(sourceDir string, decls []Declaration) (*Table, error) {
	source, err := resolveSource(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return nil, faults.Configf("destinations must declare at least one directory")
	}

	table := &Table{
		source:  source,
		entries: make([]Entry, 0, len(decls)),
		byExt:   make(map[string]string),
	}
	for _, decl := range decls {
		name := strings.TrimSpace(decl.Name)
		if name == "" {
			return nil, faults.Configf("destination name must not be empty")
		}
		dest := name
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(source, dest)
		}
		dest = filepath.Clean(dest)

		entry := Entry{Destination: dest}
		for _, raw := range decl.Extensions {
			ext, err := Canonical(raw)
			if err != nil {
				return nil, faults.Configf("destinations.%s: %v", name, err)
			}
			if owner, ok := table.byExt[ext]; ok {
				if owner == dest {
					continue
				}
				return nil, faults.Configf("extension %s is declared for both %s and %s", ext, owner, dest)
			}
			table.byExt[ext] = dest
			entry.Extensions = append(entry.Extensions, ext)
		}
		if len(entry.Extensions) == 0 {
			return nil, faults.Configf("destinations.%s must list at least one extension", name)
		}
		table.entries = append(table.entries, entry)
	}
	return table, nil
}

func resolveSource(sourceDir string) (string, error) {
	trimmed := strings.TrimSpace(sourceDir)
	if trimmed == "" {
		return "", faults.Configf("source_folder must be set")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", faults.Wrap(faults.ErrConfiguration, "rules", "resolve source", trimmed, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", faults.Wrap(faults.ErrConfiguration, "rules", "stat source", abs, err)
	}
	if !info.IsDir() {
		return "", faults.Configf("source_folder %s is not a directory", abs)
	}
	dir, err := os.Open(abs)
	if err != nil {
		return "", faults.Wrap(faults.ErrConfiguration, "rules", "open source", abs, err)
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", faults.Wrap(faults.ErrConfiguration, "rules", "read source", abs, err)
	}
	return abs, nil
}

// Canonical normalizes an extension to lowercase with a leading dot.
// Both "jpg" and ".JPG" become ".jpg".
func Canonical(raw string) (string, error) {
	ext := strings.TrimSpace(raw)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return "", fmt.Errorf("invalid extension %q", raw)
	}
	if strings.ContainsRune(ext, filepath.Separator) {
		return "", fmt.Errorf("extension %q must not contain a path separator", raw)
	}
	return "." + lower.String(ext), nil
}

// ExtensionOf returns the lowercased substring from the last dot of name to
// its end. Names without a dot, or ending in one, have no extension.
func ExtensionOf(name string) string {
	base := filepath.Base(name)
	idx := strings.LastIndexByte(base, '.')
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return lower.String(base[idx:])
}

// Classify returns the destination directory for name, or false when its
// extension is not in the table.
func (t *Table) Classify(name string) (string, bool) {
	ext := ExtensionOf(name)
	if ext == "" {
		return "", false
	}
	dest, ok := t.byExt[ext]
	return dest, ok
}

// Source returns the absolute source directory.
func (t *Table) Source() string { return t.source }

// Entries returns a copy of the table in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Destination: e.Destination, Extensions: append([]string(nil), e.Extensions...)}
	}
	return out
}

// Destinations lists the resolved destination directories in declaration order.
func (t *Table) Destinations() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Destination)
	}
	return out
}

// Within reports whether path equals dir or lies beneath it.
func Within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Contains reports whether the directory entry at path sits inside dir once
// symlinks are evaluated on both sides. The entry itself is not followed, so a
// link living in the source is judged by where the link is, not its target.
func Contains(dir, path string) bool {
	path = filepath.Clean(path)
	entry := filepath.Join(Resolve(filepath.Dir(path)), filepath.Base(path))
	return Within(entry, Resolve(dir))
}

// Resolve evaluates symlinks in path. Trailing components that do not exist
// yet are kept verbatim beneath their nearest existing ancestor.
func Resolve(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(Resolve(parent), filepath.Base(path))
}
