// Package domain defines the errors and value types shared by the key management facilities.
package domain

import (
	"github.com/allisson/kmi/internal/errors"
)

// Facility error definitions.
//
// Together with cryptoDomain.ErrDecryptionFailed and cryptoDomain.ErrPaddingInvalid these
// are the failure kinds a facility caller has to tell apart. A relay distinguishes an
// unknown key from an unreachable master and from a master that failed while serving.
var (
	// ErrKeyNotFound indicates no wrapped data key is stored for a KEK.
	//
	// HTTP Status: 404 Not Found
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "wrapped key not found")

	// ErrTransport indicates the master facility could not be reached, or the
	// exchange was cut short by a timeout or cancellation.
	//
	// HTTP Status: 503 Service Unavailable
	ErrTransport = errors.Wrap(errors.ErrUnavailable, "master facility unreachable")

	// ErrRemoteFailure indicates the master facility answered with a server error.
	//
	// HTTP Status: 500 Internal Server Error
	ErrRemoteFailure = errors.New("master facility failed")

	// ErrEmptyKEK indicates a KEK file holds no bytes. Facilities never return it:
	// an empty KEK presented to a facility is simply ErrKeyNotFound.
	ErrEmptyKEK = errors.Wrap(errors.ErrInvalidInput, "kek must not be empty")
)
