package videoingest

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrAssetNotFound indicates an asset was not found
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetExists indicates an asset with the same id was already finalized
	ErrAssetExists = errors.New("asset already finalized")

	// ErrObjectNotFound indicates the referenced storage object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrEmptyObject indicates the referenced storage object has zero bytes
	ErrEmptyObject = errors.New("empty object")

	// ErrMalformedTelemetry indicates the telemetry payload is not an array
	ErrMalformedTelemetry = errors.New("telemetry payload is not an array")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the email is already registered
	ErrUserExists = errors.New("email already registered")

	// ErrInvalidCredentials indicates email/password did not match
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports caller-supplied data violating a precondition.
// It is never worth retrying without fixing the request.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigError reports missing or unusable runtime configuration.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing or invalid configuration: %s", e.Setting)
}

// StorageError reports an object-storage failure. The operation left no
// partial state behind, so the caller may retry.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a relational-store failure. The enclosing
// transaction was rolled back in full, so the caller may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence operation %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a fix-your-request failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetriable reports whether err is a downstream dependency failure that is
// safe to retry because no partial state was left behind.
func IsRetriable(err error) bool {
	var se *StorageError
	var pe *PersistenceError
	return errors.As(err, &se) || errors.As(err, &pe)
}
