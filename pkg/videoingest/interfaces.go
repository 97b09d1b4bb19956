package videoingest

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for object storage backends.
//
// A missing object is not a transport failure: Exists returns false and Size
// returns ErrObjectNotFound. Transport and auth failures surface as plain
// errors for the service layer to wrap.
type BlobStore interface {
	// EnsureBucket creates the configured bucket if it does not exist.
	// It is idempotent.
	EnsureBucket(ctx context.Context) error

	// PresignUpload returns a scoped, time-limited URL granting write access
	// to exactly one object key.
	PresignUpload(ctx context.Context, objectKey string, ttl time.Duration) (string, error)

	// Exists probes whether an object is present.
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Size returns the object size in bytes. Only meaningful when the object
	// exists; a missing object yields ErrObjectNotFound.
	Size(ctx context.Context, objectKey string) (int64, error)

	// Upload writes content directly, bypassing the capability flow. Used by
	// tests and server-side ingestion.
	Upload(ctx context.Context, objectKey string, reader io.Reader) error
}

// Repository defines the interface for relational persistence.
type Repository interface {
	// Asset operations. FinalizeAsset commits the asset row and its
	// telemetry batch in one transaction: on any error nothing is applied.
	// A duplicate asset id yields ErrAssetExists with no partial writes.
	FinalizeAsset(ctx context.Context, asset *Asset, points []TelemetryPoint) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	ListTelemetryByAsset(ctx context.Context, assetID uuid.UUID) ([]*TelemetryPoint, error)

	// Reference-table reads
	ListMaintenanceCrews(ctx context.Context, limit int) ([]*MaintenanceCrew, error)
	ListRoadSegments(ctx context.Context, limit int) ([]*RoadSegment, error)

	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
