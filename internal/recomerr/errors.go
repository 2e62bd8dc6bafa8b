// Package recomerr defines the sentinel error kinds shared across the
// interner, the engines and the orchestrator (spec §7).
package recomerr

import "errors"

var (
	// ErrInvalidConfig is returned by constructors when a required
	// configuration field is missing or wrong-shaped.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidArguments names the wrong-argument-count failure of the
	// CLI entry point. The CLI reports that case by printing its own
	// message to stderr and exiting with status 1; it does not return
	// this value.
	ErrInvalidArguments = errors.New("invalid number of arguments")

	// ErrMissingItemCount is returned when a similarity update needs a
	// neighbor item's count and finds none — a violation of the
	// "count equals sum of user weights" invariant that the update
	// protocol is supposed to maintain.
	ErrMissingItemCount = errors.New("missing item count")
)
