// Package errors holds the sentinel errors every layer classifies failures by.
//
// Domain packages wrap these sentinels with their own messages (see Wrap). The HTTP
// layer and the metrics decorators only ever look at the sentinel underneath, so a
// new domain error needs no changes outside its own package.
package errors

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates a dependency (remote facility, storage backend) could not be reached.
	ErrUnavailable = errors.New("unavailable")

	// ErrInvalidConfiguration indicates the process was started with unusable settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// kinds is checked in order; the first sentinel found in the chain names the kind.
var kinds = []struct {
	sentinel error
	name     string
}{
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "canceled"},
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
	{ErrUnavailable, "unavailable"},
	{ErrInvalidConfiguration, "invalid_configuration"},
}

// Kind returns a short label for the sentinel err wraps: "canceled", "not_found",
// "invalid_input", "unavailable", "invalid_configuration" or "internal".
// A nil err has no kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.name
		}
	}
	return "internal"
}

// New returns an error that matches none of the sentinels.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
