// Package apperr holds the error taxonomy shared by every operation of the
// relay. Handlers map these sentinels to transport status codes in one place.
package apperr

import "errors"

var (
	// ErrUnauthenticated: the credential is missing, malformed or failed
	// verification. Nothing downstream of the verifier ran.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied: the caller's role does not allow the requested
	// recipient scope. No mailbox was touched.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidArgument: malformed request body or parameter. No side effect.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMailboxFull: a bounded mailbox running the reject-new policy refused
	// an event.
	ErrMailboxFull = errors.New("mailbox full")

	// ErrUnavailable: an external collaborator (directory lookup) cannot be
	// reached or is not configured.
	ErrUnavailable = errors.New("unavailable")
)
