package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

const defaultRecordLimit = 100

// RecordsHandler serves the reference tables consumed by the dashboard:
// maintenance crew assignments and the road-segment (SRI) master list.
type RecordsHandler struct {
	repo videoingest.Repository
	auth *jwtauth.JWTAuth
}

func NewRecordsHandler(repo videoingest.Repository, auth *jwtauth.JWTAuth) *RecordsHandler {
	return &RecordsHandler{repo: repo, auth: auth}
}

// Routes returns the router for records endpoints. Crew assignments carry
// operational details, so they sit behind token verification.
func (h *RecordsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.auth))
		r.Use(jwtauth.Authenticator)
		r.Get("/crews", h.ListCrews)
	})

	r.Get("/segments", h.ListSegments)
	return r
}

// ListCrews returns maintenance crew assignments, most recently updated first
func (h *RecordsHandler) ListCrews(w http.ResponseWriter, r *http.Request) {
	crews, err := h.repo.ListMaintenanceCrews(r.Context(), recordLimit(r))
	if err != nil {
		slog.Error("Failed to list maintenance crews", "error", err)
		writeServiceError(w, r, err)
		return
	}
	if crews == nil {
		crews = []*videoingest.MaintenanceCrew{}
	}
	render.JSON(w, r, crews)
}

// ListSegments returns the road-segment master list, most recently updated first
func (h *RecordsHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.repo.ListRoadSegments(r.Context(), recordLimit(r))
	if err != nil {
		slog.Error("Failed to list road segments", "error", err)
		writeServiceError(w, r, err)
		return
	}
	if segments == nil {
		segments = []*videoingest.RoadSegment{}
	}
	render.JSON(w, r, segments)
}

func recordLimit(r *http.Request) int {
	limit := defaultRecordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	return limit
}
