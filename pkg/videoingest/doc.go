// Package videoingest implements the delegated-upload and transactional
// finalization protocol for field-captured video with GPS telemetry.
//
// Clients never push video bytes through this service. They request a
// short-lived, write-only upload capability for a single object path, upload
// directly to object storage with it, and then call finalize. Finalization
// verifies the object actually landed (exists, non-empty), reconciles the
// attached GPS samples to absolute timestamps, and commits the asset row
// together with its telemetry batch in one database transaction.
//
// Implementations of the storage gateway (memory, S3) and the repository
// (memory, Postgres) live under subpackages.
package videoingest
