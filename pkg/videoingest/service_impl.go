package videoingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsight/video-ingest/pkg/videoingest/objectkey"
)

// Default protocol windows. The skew tolerance is folded into the signing
// TTL so a capability stays usable for its full lifetime under clock skew.
const (
	DefaultCapabilityTTL    = 15 * time.Minute
	DefaultSkewTolerance    = 1 * time.Minute
	DefaultOperationTimeout = 30 * time.Second
)

// service implements the Service interface
type service struct {
	repo          Repository
	store         BlobStore
	keys          objectkey.Generator
	capabilityTTL time.Duration
	skewTolerance time.Duration
	opTimeout     time.Duration
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithBlobStore sets the object storage gateway for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithObjectKeyGenerator overrides the object path strategy
func WithObjectKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithCapabilityTTL sets the upload capability lifetime
func WithCapabilityTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.capabilityTTL = ttl
	}
}

// WithSkewTolerance sets the clock-skew allowance added to the signing window
func WithSkewTolerance(d time.Duration) Option {
	return func(s *service) {
		s.skewTolerance = d
	}
}

// WithOperationTimeout bounds each storage probe and database transaction
func WithOperationTimeout(d time.Duration) Option {
	return func(s *service) {
		s.opTimeout = d
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		keys:          objectkey.NewVideoKeyGenerator(),
		capabilityTTL: DefaultCapabilityTTL,
		skewTolerance: DefaultSkewTolerance,
		opTimeout:     DefaultOperationTimeout,
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, &ConfigError{Setting: "repository"}
	}
	if s.store == nil {
		return nil, &ConfigError{Setting: "blob store"}
	}

	return s, nil
}

func (s *service) IssueUploadCapability(ctx context.Context, req IssueCapabilityRequest) (*UploadCapability, error) {
	assetID := uuid.New()
	objectPath := s.keys.GenerateKey(assetID)

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.store.EnsureBucket(ctx); err != nil {
		return nil, &StorageError{Op: "ensure_bucket", Err: err}
	}

	writeURL, err := s.store.PresignUpload(ctx, objectPath, s.capabilityTTL+s.skewTolerance)
	if err != nil {
		return nil, &StorageError{Op: "presign_upload", Key: objectPath, Err: err}
	}

	now := time.Now().UTC()
	return &UploadCapability{
		AssetID:    assetID,
		ObjectPath: objectPath,
		WriteURL:   writeURL,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.capabilityTTL),
		DeviceID:   req.DeviceID,
	}, nil
}

func (s *service) FinalizeUpload(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	// Fail fast on caller input before touching any dependency. The first
	// failing check wins.
	if req.AssetID == uuid.Nil {
		return nil, &ValidationError{Field: "assetId", Err: errors.New("missing required field")}
	}
	if req.ObjectPath == "" {
		return nil, &ValidationError{Field: "objectPath", Err: errors.New("missing required field")}
	}
	if req.StartUTC.IsZero() {
		return nil, &ValidationError{Field: "startUtc", Err: errors.New("missing required field")}
	}
	if req.DurationSec <= 0 {
		return nil, &ValidationError{Field: "durationSeconds", Err: errors.New("must be a positive integer")}
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	exists, err := s.store.Exists(probeCtx, req.ObjectPath)
	if err != nil {
		return nil, &StorageError{Op: "exists", Key: req.ObjectPath, Err: err}
	}
	if !exists {
		return nil, &ValidationError{Field: "objectPath", Err: ErrObjectNotFound}
	}

	size, err := s.store.Size(probeCtx, req.ObjectPath)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, &ValidationError{Field: "objectPath", Err: ErrObjectNotFound}
		}
		return nil, &StorageError{Op: "size", Key: req.ObjectPath, Err: err}
	}
	if size <= 0 {
		return nil, &ValidationError{Field: "objectPath", Err: ErrEmptyObject}
	}

	raw, err := DecodeTelemetry(req.Telemetry)
	if err != nil {
		return nil, &ValidationError{Field: "telemetry", Err: err}
	}
	points := ReconcileTelemetry(req.AssetID, req.StartUTC, raw)

	asset := &Asset{
		ID:          req.AssetID,
		StartUTC:    req.StartUTC.UTC(),
		DurationSec: req.DurationSec,
		ObjectPath:  req.ObjectPath,
		DeviceID:    req.DeviceID,
		CreatedAt:   time.Now().UTC(),
	}

	txCtx, cancelTx := context.WithTimeout(ctx, s.opTimeout)
	defer cancelTx()

	if err := s.repo.FinalizeAsset(txCtx, asset, points); err != nil {
		if errors.Is(err, ErrAssetExists) {
			// The asset row is already committed; a retried finalize is a
			// no-op success rather than a hard failure.
			return &FinalizeResult{AssetID: req.AssetID, Status: FinalizeStatusAlreadyFinalized}, nil
		}
		return nil, &PersistenceError{Op: "finalize_asset", Err: err}
	}

	return &FinalizeResult{
		AssetID:         req.AssetID,
		Status:          FinalizeStatusOK,
		TelemetryPoints: len(points),
	}, nil
}

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

func (s *service) ListAssetTelemetry(ctx context.Context, assetID uuid.UUID) ([]*TelemetryPoint, error) {
	return s.repo.ListTelemetryByAsset(ctx, assetID)
}
