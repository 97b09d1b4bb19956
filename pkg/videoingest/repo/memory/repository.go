package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

// Repository is an in-memory implementation of videoingest.Repository for
// tests and the development profile. FinalizeAsset keeps the relational
// store's contract: the asset row and its telemetry batch land together or
// not at all, so the whole batch is validated before anything is applied.
type Repository struct {
	mu        sync.RWMutex
	assets    map[uuid.UUID]*videoingest.Asset
	telemetry map[uuid.UUID][]videoingest.TelemetryPoint
	users     map[string]*videoingest.User
	crews     []*videoingest.MaintenanceCrew
	segments  []*videoingest.RoadSegment
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		assets:    make(map[uuid.UUID]*videoingest.Asset),
		telemetry: make(map[uuid.UUID][]videoingest.TelemetryPoint),
		users:     make(map[string]*videoingest.User),
	}
}

func (r *Repository) FinalizeAsset(ctx context.Context, asset *videoingest.Asset, points []videoingest.TelemetryPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[asset.ID]; exists {
		return videoingest.ErrAssetExists
	}

	// Validate the whole batch up front; nothing is applied on failure.
	for i, p := range points {
		if p.AssetID != asset.ID {
			return fmt.Errorf("telemetry point %d references asset %s, not %s", i, p.AssetID, asset.ID)
		}
		if p.Timestamp.IsZero() {
			return fmt.Errorf("telemetry point %d has no timestamp", i)
		}
		if p.Latitude < -90 || p.Latitude > 90 {
			return fmt.Errorf("telemetry point %d latitude out of range: %f", i, p.Latitude)
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return fmt.Errorf("telemetry point %d longitude out of range: %f", i, p.Longitude)
		}
	}

	stored := *asset
	r.assets[asset.ID] = &stored
	r.telemetry[asset.ID] = append([]videoingest.TelemetryPoint(nil), points...)
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*videoingest.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, videoingest.ErrAssetNotFound
	}

	copied := *asset
	return &copied, nil
}

func (r *Repository) ListTelemetryByAsset(ctx context.Context, assetID uuid.UUID) ([]*videoingest.TelemetryPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.telemetry[assetID]
	points := make([]*videoingest.TelemetryPoint, 0, len(stored))
	for i := range stored {
		copied := stored[i]
		points = append(points, &copied)
	}
	return points, nil
}

func (r *Repository) ListMaintenanceCrews(ctx context.Context, limit int) ([]*videoingest.MaintenanceCrew, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	crews := append([]*videoingest.MaintenanceCrew(nil), r.crews...)
	sort.SliceStable(crews, func(i, j int) bool {
		return crews[i].LastUpdate.After(crews[j].LastUpdate)
	})
	if limit > 0 && len(crews) > limit {
		crews = crews[:limit]
	}
	return crews, nil
}

func (r *Repository) ListRoadSegments(ctx context.Context, limit int) ([]*videoingest.RoadSegment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := append([]*videoingest.RoadSegment(nil), r.segments...)
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].LastUpdate.After(segments[j].LastUpdate)
	})
	if limit > 0 && len(segments) > limit {
		segments = segments[:limit]
	}
	return segments, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *videoingest.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return videoingest.ErrUserExists
	}

	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*videoingest.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[email]
	if !exists {
		return nil, videoingest.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// SeedMaintenanceCrews replaces the maintenance-crew reference table.
func (r *Repository) SeedMaintenanceCrews(crews []*videoingest.MaintenanceCrew) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crews = append([]*videoingest.MaintenanceCrew(nil), crews...)
}

// SeedRoadSegments replaces the road-segment reference table.
func (r *Repository) SeedRoadSegments(segments []*videoingest.RoadSegment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append([]*videoingest.RoadSegment(nil), segments...)
}
