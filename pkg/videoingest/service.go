package videoingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the capability/finalize protocol.
type Service interface {
	// IssueUploadCapability generates a fresh asset id, ensures the bucket
	// exists, and returns a write-only, time-limited upload URL for the
	// asset's object path. No relational side effects.
	IssueUploadCapability(ctx context.Context, req IssueCapabilityRequest) (*UploadCapability, error)

	// FinalizeUpload verifies the uploaded object and commits the asset row
	// together with its reconciled telemetry batch in one transaction.
	FinalizeUpload(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error)

	// GetAsset returns a finalized asset by id.
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)

	// ListAssetTelemetry returns the telemetry points of a finalized asset
	// in insertion order.
	ListAssetTelemetry(ctx context.Context, assetID uuid.UUID) ([]*TelemetryPoint, error)
}

// IssueCapabilityRequest contains parameters for issuing an upload capability
type IssueCapabilityRequest struct {
	DeviceID string
}

// FinalizeRequest contains parameters for finalizing a delegated upload.
// Telemetry carries the raw JSON array so that a non-array payload can be
// rejected as malformed rather than silently ignored.
type FinalizeRequest struct {
	AssetID     uuid.UUID
	ObjectPath  string
	StartUTC    time.Time
	DurationSec int
	DeviceID    string
	Telemetry   json.RawMessage
}

// FinalizeResult confirms a finalization.
type FinalizeResult struct {
	AssetID         uuid.UUID
	Status          FinalizeStatus
	TelemetryPoints int
}
