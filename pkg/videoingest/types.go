package videoingest

import (
	"time"

	"github.com/google/uuid"
)

// FinalizeStatus is the domain type for finalize outcomes.
type FinalizeStatus string

// Finalize status constants (typed).
const (
	FinalizeStatusOK               FinalizeStatus = "ok"
	FinalizeStatusAlreadyFinalized FinalizeStatus = "already_finalized"
)

// UploadCapability is the ephemeral result of issuing a write capability for
// one object path. It is never persisted; its lifetime is bounded by
// ExpiresAt and it is consumed by the client performing the direct upload.
type UploadCapability struct {
	AssetID    uuid.UUID `json:"assetId"`
	ObjectPath string    `json:"objectPath"`
	WriteURL   string    `json:"writeUrl"`
	IssuedAt   time.Time `json:"issuedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	DeviceID   string    `json:"deviceId,omitempty"`
}

// Asset represents one finalized recording. Rows are created exactly once by
// finalization and are immutable thereafter.
type Asset struct {
	ID          uuid.UUID `json:"assetId"`
	StartUTC    time.Time `json:"startUtc"`
	DurationSec int       `json:"durationSeconds"`
	ObjectPath  string    `json:"objectPath"`
	DeviceID    string    `json:"deviceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TelemetryPoint is one GPS sample on an asset's recording timeline, already
// reconciled to an absolute timestamp. RelOffsetSec is set only when the
// timestamp was derived from a relative offset.
type TelemetryPoint struct {
	AssetID      uuid.UUID `json:"assetId"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"lat"`
	Longitude    float64   `json:"lon"`
	RelOffsetSec *int      `json:"relativeOffsetSeconds,omitempty"`
}

// RawGPSPoint is a GPS sample as submitted by a device: coordinates plus
// either an explicit timestamp or an offset in seconds from the recording
// start. Pointers distinguish absent from zero.
type RawGPSPoint struct {
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Timestamp    string   `json:"timestamp,omitempty"`
	RelOffsetSec *int     `json:"relativeOffsetSeconds,omitempty"`
}

// MaintenanceCrew is a row of the maintenance-crew reference table. This
// service only reads it; writes happen upstream.
type MaintenanceCrew struct {
	ID            int       `json:"id"`
	SRI           string    `json:"sri"`
	StartMilepost float64   `json:"startMilepost"`
	EndMilepost   float64   `json:"endMilepost"`
	CrewType      string    `json:"crewType"`
	CrewID        int       `json:"crewId"`
	LastUpdate    time.Time `json:"lastUpdateDate"`
}

// RoadSegment is a row of the road-segment (SRI master) reference table.
type RoadSegment struct {
	ID            int       `json:"id"`
	SRI           string    `json:"sri"`
	StartMilepost float64   `json:"startMilepost"`
	EndMilepost   float64   `json:"endMilepost"`
	Direction     string    `json:"direction"`
	Name          string    `json:"name"`
	ParentSRI     string    `json:"parentSri,omitempty"`
	LastUpdate    time.Time `json:"lastUpdateDate"`
}

// User is an account that can query reference tables with a bearer token.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
