package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

// IngestHandler exposes the capability and finalize endpoints used by
// field devices.
type IngestHandler struct {
	service videoingest.Service
}

func NewIngestHandler(service videoingest.Service) *IngestHandler {
	return &IngestHandler{service: service}
}

// Routes returns the router for ingest endpoints
func (h *IngestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/capability", h.IssueCapability)
	r.Post("/finalize", h.Finalize)
	r.Get("/assets/{asset_id}", h.GetAsset)
	r.Get("/assets/{asset_id}/telemetry", h.GetAssetTelemetry)
	return r
}

// IssueCapabilityRequest represents the request for a device upload grant
type IssueCapabilityRequest struct {
	DeviceID string `json:"deviceId,omitempty"`
}

// IssueCapabilityResponse carries the presigned write grant back to the device
type IssueCapabilityResponse struct {
	AssetID    string    `json:"assetId"`
	ObjectPath string    `json:"objectPath"`
	WriteURL   string    `json:"writeUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// FinalizeRequest represents the device's report that an upload finished
type FinalizeRequest struct {
	AssetID         string          `json:"assetId"`
	ObjectPath      string          `json:"objectPath"`
	StartUTC        time.Time       `json:"startUtc"`
	DurationSeconds int             `json:"durationSeconds"`
	DeviceID        string          `json:"deviceId,omitempty"`
	Telemetry       json.RawMessage `json:"telemetry,omitempty"`
}

// FinalizeResponse reports the outcome of a finalize attempt
type FinalizeResponse struct {
	AssetID         string `json:"assetId"`
	Status          string `json:"status"`
	TelemetryPoints int    `json:"telemetryPoints"`
}

// AssetResponse represents a finalized recording
type AssetResponse struct {
	AssetID         string    `json:"assetId"`
	StartUTC        time.Time `json:"startUtc"`
	DurationSeconds int       `json:"durationSeconds"`
	ObjectPath      string    `json:"objectPath"`
	DeviceID        string    `json:"deviceId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TelemetryPointResponse is one reconciled GPS sample
type TelemetryPointResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
}

// IssueCapability mints a fresh asset identity and a presigned write URL
func (h *IngestHandler) IssueCapability(w http.ResponseWriter, r *http.Request) {
	var req IssueCapabilityRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("Failed to decode capability request", "error", err)
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	grant, err := h.service.IssueUploadCapability(r.Context(), videoingest.IssueCapabilityRequest{
		DeviceID: req.DeviceID,
	})
	if err != nil {
		slog.Error("Failed to issue upload capability", "device_id", req.DeviceID, "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Upload capability issued", "asset_id", grant.AssetID.String(), "object_path", grant.ObjectPath)
	render.JSON(w, r, IssueCapabilityResponse{
		AssetID:    grant.AssetID.String(),
		ObjectPath: grant.ObjectPath,
		WriteURL:   grant.WriteURL,
		ExpiresAt:  grant.ExpiresAt,
	})
}

// Finalize records a completed upload together with its telemetry batch
func (h *IngestHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode finalize request", "error", err)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		slog.Error("Invalid asset ID", "asset_id", req.AssetID, "error", err)
		writeError(w, r, http.StatusBadRequest, "invalid asset ID")
		return
	}

	result, err := h.service.FinalizeUpload(r.Context(), videoingest.FinalizeRequest{
		AssetID:     assetID,
		ObjectPath:  req.ObjectPath,
		StartUTC:    req.StartUTC,
		DurationSec: req.DurationSeconds,
		DeviceID:    req.DeviceID,
		Telemetry:   req.Telemetry,
	})
	if err != nil {
		slog.Error("Failed to finalize upload", "asset_id", assetID.String(), "error", err)
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Upload finalized",
		"asset_id", result.AssetID.String(),
		"status", result.Status,
		"telemetry_points", result.TelemetryPoints)
	render.JSON(w, r, FinalizeResponse{
		AssetID:         result.AssetID.String(),
		Status:          string(result.Status),
		TelemetryPoints: result.TelemetryPoints,
	})
}

// GetAsset returns a finalized recording by ID
func (h *IngestHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "asset_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid asset ID")
		return
	}

	asset, err := h.service.GetAsset(r.Context(), assetID)
	if err != nil {
		slog.Error("Failed to get asset", "asset_id", assetID.String(), "error", err)
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, AssetResponse{
		AssetID:         asset.ID.String(),
		StartUTC:        asset.StartUTC,
		DurationSeconds: asset.DurationSec,
		ObjectPath:      asset.ObjectPath,
		DeviceID:        asset.DeviceID,
		CreatedAt:       asset.CreatedAt,
	})
}

// GetAssetTelemetry returns the reconciled GPS trace for a recording
func (h *IngestHandler) GetAssetTelemetry(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "asset_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid asset ID")
		return
	}

	points, err := h.service.ListAssetTelemetry(r.Context(), assetID)
	if err != nil {
		slog.Error("Failed to list telemetry", "asset_id", assetID.String(), "error", err)
		writeServiceError(w, r, err)
		return
	}

	resp := make([]TelemetryPointResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, TelemetryPointResponse{
			Timestamp: p.Timestamp,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
	}
	render.JSON(w, r, resp)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// writeServiceError translates error kinds into HTTP statuses. Validation
// problems are the caller's fault, storage and persistence problems are not.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case videoingest.IsValidation(err):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, videoingest.ErrAssetNotFound):
		writeError(w, r, http.StatusNotFound, "asset not found")
	case videoingest.IsRetriable(err):
		writeError(w, r, http.StatusServiceUnavailable, "backend unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
