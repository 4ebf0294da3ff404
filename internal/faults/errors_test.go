package faults_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"shelve/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("permission denied")
	err := faults.Wrap(faults.ErrIO, "mover", "create destination", "cannot create Pictures", base)
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mover", "create destination", "cannot create Pictures", "permission denied"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("expected ErrIO default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "organizer failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"config", faults.Configf("destinations must not be empty"), true},
		{"subscription", faults.Wrap(faults.ErrSubscription, "watcher", "add", "", errors.New("too many watches")), true},
		{"io", faults.Wrap(faults.ErrIO, "mover", "rename", "", nil), false},
		{"exhausted", faults.ErrNameExhausted, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := faults.IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestVanishedRecognizesNotExist(t *testing.T) {
	if !faults.Vanished(fmt.Errorf("rename: %w", fs.ErrNotExist)) {
		t.Fatal("expected fs.ErrNotExist to count as vanished")
	}
	if !faults.Vanished(faults.ErrVanished) {
		t.Fatal("expected marker to count as vanished")
	}
	if faults.Vanished(faults.ErrIO) {
		t.Fatal("did not expect ErrIO to count as vanished")
	}
}
