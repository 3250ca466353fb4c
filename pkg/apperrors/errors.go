// Package apperrors defines the error taxonomy for the sync engine.
//
// Every failure the engine surfaces wraps one of these sentinels so callers
// can classify it with errors.Is without string matching.
package apperrors

import "errors"

var (
	// ErrNetwork marks transport-level failures. Always retryable.
	ErrNetwork = errors.New("network failure")

	// ErrRateLimited marks a rate-limit response from the remote side.
	// Retryable with bounded exponential backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound marks a missing remote resource. The gateway translates
	// 404 responses into empty results, so this should rarely escape it.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a malformed payload. The affected record is
	// skipped; local state is left untouched.
	ErrValidation = errors.New("validation failure")

	// ErrMigrationConflict means the remote already holds data for a guest
	// project being migrated. Migration aborts, local data is preserved.
	ErrMigrationConflict = errors.New("migration conflict")

	// ErrAuthExpired means the bearer token was rejected. One refresh
	// attempt is made before the operation fails.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrNotAuthenticated means an operation requiring credentials was
	// attempted in an anonymous session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// IsRetryable reports whether the error is transient and worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}
