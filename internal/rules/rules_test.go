package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelve/internal/config"
	"shelve/internal/faults"
)

func TestBuildResolvesDestinations(t *testing.T) {
	src := t.TempDir()
	abs := filepath.Join(t.TempDir(), "Archive")

	table, err := Build(src, []Declaration{
		{Name: "Pictures", Extensions: []string{".JPG", "png"}},
		{Name: abs, Extensions: []string{" .zip "}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entries := table.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if got, want := entries[0].Destination, filepath.Join(src, "Pictures"); got != want {
		t.Fatalf("relative destination = %q, want %q", got, want)
	}
	if got := entries[1].Destination; got != abs {
		t.Fatalf("absolute destination = %q, want %q", got, abs)
	}
	if got := entries[0].Extensions; len(got) != 2 || got[0] != ".jpg" || got[1] != ".png" {
		t.Fatalf("extensions = %v, want [.jpg .png]", got)
	}
	if table.Source() != src {
		t.Fatalf("source = %q, want %q", table.Source(), src)
	}
}

func TestClassify(t *testing.T) {
	src := t.TempDir()
	table, err := Build(src, []Declaration{
		{Name: "Pictures", Extensions: []string{".jpg"}},
		{Name: "Docs", Extensions: []string{".pdf", ".tar.gz", ".bashrc"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"photo.jpg", "Pictures", true},
		{"PHOTO.JpG", "Pictures", true},
		{"report.final.PDF", "Docs", true},
		{"/elsewhere/deep/scan.pdf", "Docs", true},
		{".bashrc", "Docs", true},
		{"notes.txt", "", false},
		{"Makefile", "", false},
		{"trailing.", "", false},
		{"bundle.tar.gz", "", false},
	}
	for _, tc := range cases {
		got, ok := table.Classify(tc.name)
		if ok != tc.ok {
			t.Fatalf("Classify(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if tc.ok && got != filepath.Join(src, tc.want) {
			t.Fatalf("Classify(%q) = %q, want %q", tc.name, got, filepath.Join(src, tc.want))
		}
	}
}

func TestExtensionOf(t *testing.T) {
	cases := map[string]string{
		"a.TXT":          ".txt",
		"archive.tar.gz": ".gz",
		"noext":          "",
		"dot.":           "",
		".hidden":        ".hidden",
		"/x/y.d/file":    "",
	}
	for in, want := range cases {
		if got := ExtensionOf(in); got != want {
			t.Fatalf("ExtensionOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildRejectsInvalidTables(t *testing.T) {
	src := t.TempDir()
	cases := []struct {
		name   string
		source string
		decls  []Declaration
	}{
		{"empty destinations", src, nil},
		{"missing source", filepath.Join(src, "missing"), []Declaration{{Name: "A", Extensions: []string{".a"}}}},
		{"blank source", "", []Declaration{{Name: "A", Extensions: []string{".a"}}}},
		{"duplicate extension", src, []Declaration{
			{Name: "A", Extensions: []string{".jpg"}},
			{Name: "B", Extensions: []string{"JPG"}},
		}},
		{"bare dot", src, []Declaration{{Name: "A", Extensions: []string{"."}}}},
		{"no extensions", src, []Declaration{{Name: "A"}}},
		{"blank name", src, []Declaration{{Name: " ", Extensions: []string{".a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.source, tc.decls)
			if !errors.Is(err, faults.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestBuildRejectsFileAsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Build(path, []Declaration{{Name: "A", Extensions: []string{".a"}}})
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildDuplicateWithinDestinationIsFolded(t *testing.T) {
	table, err := Build(t.TempDir(), []Declaration{{Name: "A", Extensions: []string{".a", "A"}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := table.Entries()[0].Extensions; len(got) != 1 {
		t.Fatalf("extensions = %v, want one", got)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SourceFolder = t.TempDir()
	cfg.Destinations = config.Destinations{{Name: "Docs", Extensions: []string{"pdf"}}}
	table, err := FromConfig(&cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if dests := table.Destinations(); len(dests) != 1 || dests[0] != filepath.Join(cfg.SourceFolder, "Docs") {
		t.Fatalf("destinations = %v", dests)
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		path, dir string
		want      bool
	}{
		{"/in/Pictures", "/in/Pictures", true},
		{"/in/Pictures/a.jpg", "/in/Pictures", true},
		{"/in/a.jpg", "/in/Pictures", false},
		{"/in/Pictures2/a.jpg", "/in/Pictures", false},
		{"/in/..foo/a", "/in", true},
	}
	for _, tc := range cases {
		if got := Within(tc.path, tc.dir); got != tc.want {
			t.Fatalf("Within(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
		}
	}
}

func TestContainsFollowsSymlinkedDirectories(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	if err := os.MkdirAll(filepath.Join(target, "Pictures"), 0o755); err != nil {
		t.Fatal(err)
	}
	alias := filepath.Join(base, "alias")
	if err := os.Symlink(target, alias); err != nil {
		t.Fatal(err)
	}
	photo := filepath.Join(target, "a.jpg")
	if err := os.WriteFile(photo, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "photo-link.jpg")
	if err := os.Symlink(photo, link); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name      string
		dir, path string
		want      bool
	}{
		{"destination aliases source", alias, photo, true},
		{"source reached through alias", target, filepath.Join(alias, "a.jpg"), true},
		{"missing destination under alias", filepath.Join(alias, "Docs", "2026"), filepath.Join(target, "Docs", "2026", "x.pdf"), true},
		{"sibling directory", filepath.Join(alias, "Pictures"), photo, false},
		{"link judged by its own location", target, link, false},
	}
	for _, tc := range cases {
		if got := Contains(tc.dir, tc.path); got != tc.want {
			t.Fatalf("%s: Contains(%q, %q) = %v, want %v", tc.name, tc.dir, tc.path, got, tc.want)
		}
	}
}

func TestResolveKeepsMissingTail(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	alias := filepath.Join(base, "alias")
	if err := os.Symlink(target, alias); err != nil {
		t.Fatal(err)
	}
	resolvedTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Resolve(filepath.Join(alias, "new", "dir")), filepath.Join(resolvedTarget, "new", "dir"); got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}
