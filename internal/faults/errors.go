package faults

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrSubscription  = errors.New("watch subscription error")
	ErrIO            = errors.New("io error")
	ErrNameExhausted = errors.New("name exhausted")
	ErrVanished      = errors.New("vanished before move")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinels above; nil defaults to ErrIO.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Configf is shorthand for a configuration failure without an underlying cause.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err must abort startup instead of being reported
// against a single file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrSubscription)
}

// Vanished reports whether err means the source file disappeared, either
// because it was tagged ErrVanished or because the filesystem said so.
func Vanished(err error) bool {
	return errors.Is(err, ErrVanished) || errors.Is(err, fs.ErrNotExist)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "organizer failure"
	}
	return strings.Join(parts, ": ")
}
