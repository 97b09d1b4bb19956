package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
	"github.com/fieldsight/video-ingest/pkg/videoingest/repo/memory"
	memorystorage "github.com/fieldsight/video-ingest/pkg/videoingest/storage/memory"
)

// setupIngestTest creates an IngestHandler backed by in-memory stores
func setupIngestTest(t *testing.T) (chi.Router, *memory.Repository, *memorystorage.Backend) {
	repo := memory.New()
	store := memorystorage.New()

	svc, err := videoingest.New(
		videoingest.WithRepository(repo),
		videoingest.WithBlobStore(store),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/api/v1", NewIngestHandler(svc).Routes())
	return router, repo, store
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestHandler_IssueCapability(t *testing.T) {
	router, _, _ := setupIngestTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/capability", IssueCapabilityRequest{DeviceID: "dev-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp IssueCapabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assetID, err := uuid.Parse(resp.AssetID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("videos/%s.mp4", assetID), resp.ObjectPath)
	assert.NotEmpty(t, resp.WriteURL)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestIngestHandler_IssueCapability_EmptyBody(t *testing.T) {
	router, _, _ := setupIngestTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/capability", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestIngestHandler_FullUploadFlow(t *testing.T) {
	router, _, store := setupIngestTest(t)
	ctx := context.Background()

	// 1. Device asks for an upload grant.
	w := doJSON(t, router, http.MethodPost, "/api/v1/capability", IssueCapabilityRequest{DeviceID: "dev-1"})
	require.Equal(t, http.StatusOK, w.Code)
	var grant IssueCapabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))

	// 2. Device uploads through the presigned URL. The in-memory backend
	// stands in for the direct PUT.
	require.NoError(t, store.Upload(ctx, grant.ObjectPath, bytes.NewReader([]byte("mp4 bytes"))))

	// 3. Device finalizes with its telemetry batch.
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	finalize := map[string]interface{}{
		"assetId":         grant.AssetID,
		"objectPath":      grant.ObjectPath,
		"startUtc":        start,
		"durationSeconds": 42,
		"deviceId":        "dev-1",
		"telemetry": []map[string]interface{}{
			{"lat": 40.1, "lon": -74.2, "timestamp": "2024-03-01T12:00:05Z"},
			{"lat": 40.2, "lon": -74.3, "relativeOffsetSeconds": 30},
		},
	}
	w = doJSON(t, router, http.MethodPost, "/api/v1/finalize", finalize)
	require.Equal(t, http.StatusOK, w.Code)

	var result FinalizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, grant.AssetID, result.AssetID)
	assert.Equal(t, string(videoingest.FinalizeStatusOK), result.Status)
	assert.Equal(t, 2, result.TelemetryPoints)

	// 4. The asset and its reconciled trace are readable back.
	w = doJSON(t, router, http.MethodGet, "/api/v1/assets/"+grant.AssetID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var asset AssetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	assert.Equal(t, 42, asset.DurationSeconds)
	assert.Equal(t, grant.ObjectPath, asset.ObjectPath)
	assert.Equal(t, "dev-1", asset.DeviceID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/assets/"+grant.AssetID+"/telemetry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points []TelemetryPointResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC), points[0].Timestamp)
	assert.Equal(t, start.Add(30*time.Second), points[1].Timestamp)
}

func TestIngestHandler_Finalize_DuplicateIsNoOp(t *testing.T) {
	router, _, store := setupIngestTest(t)
	ctx := context.Background()

	w := doJSON(t, router, http.MethodPost, "/api/v1/capability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grant IssueCapabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
	require.NoError(t, store.Upload(ctx, grant.ObjectPath, bytes.NewReader([]byte("x"))))

	finalize := map[string]interface{}{
		"assetId":         grant.AssetID,
		"objectPath":      grant.ObjectPath,
		"startUtc":        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		"durationSeconds": 10,
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/finalize", finalize)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/finalize", finalize)
	require.Equal(t, http.StatusOK, w.Code)
	var result FinalizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, string(videoingest.FinalizeStatusAlreadyFinalized), result.Status)
}

func TestIngestHandler_Finalize_BadRequests(t *testing.T) {
	router, _, store := setupIngestTest(t)
	ctx := context.Background()

	uploaded := uuid.New()
	uploadedPath := fmt.Sprintf("videos/%s.mp4", uploaded)
	require.NoError(t, store.Upload(ctx, uploadedPath, bytes.NewReader([]byte("x"))))

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{
			name: "not json",
			body: nil,
			want: http.StatusBadRequest,
		},
		{
			name: "bad asset id",
			body: map[string]interface{}{"assetId": "nope", "objectPath": uploadedPath, "startUtc": start, "durationSeconds": 1},
			want: http.StatusBadRequest,
		},
		{
			name: "missing object path",
			body: map[string]interface{}{"assetId": uuid.New(), "startUtc": start, "durationSeconds": 1},
			want: http.StatusBadRequest,
		},
		{
			name: "zero duration",
			body: map[string]interface{}{"assetId": uuid.New(), "objectPath": uploadedPath, "startUtc": start, "durationSeconds": 0},
			want: http.StatusBadRequest,
		},
		{
			name: "object never uploaded",
			body: map[string]interface{}{"assetId": uuid.New(), "objectPath": "videos/missing.mp4", "startUtc": start, "durationSeconds": 1},
			want: http.StatusBadRequest,
		},
		{
			name: "telemetry not an array",
			body: map[string]interface{}{"assetId": uuid.New(), "objectPath": uploadedPath, "startUtc": start, "durationSeconds": 1, "telemetry": map[string]interface{}{"lat": 1.0}},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.body == nil {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/finalize", bytes.NewReader([]byte("{not json")))
				w = httptest.NewRecorder()
				router.ServeHTTP(w, req)
			} else {
				w = doJSON(t, router, http.MethodPost, "/api/v1/finalize", tt.body)
			}
			assert.Equal(t, tt.want, w.Code)

			var errResp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp["error"])
		})
	}
}

func TestIngestHandler_GetAsset_NotFound(t *testing.T) {
	router, _, _ := setupIngestTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/assets/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/assets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// setupRecordsTest wires records and auth handlers behind a shared signing key
func setupRecordsTest(t *testing.T) (chi.Router, *memory.Repository) {
	repo := memory.New()
	auth := jwtauth.New("HS256", []byte("test-signing-key"), nil)

	router := chi.NewRouter()
	router.Mount("/api/v1/auth", NewAuthHandler(repo, auth).Routes())
	router.Mount("/api/v1/records", NewRecordsHandler(repo, auth).Routes())
	return router, repo
}

func TestAuthHandler_SignUpAndLogin(t *testing.T) {
	router, _ := setupRecordsTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Username: "inspector",
		Email:    "Inspector@Example.com",
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Duplicate email conflicts, case-insensitively.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Username: "other",
		Email:    "inspector@example.com",
		Password: "another-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "inspector@example.com",
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "inspector@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_SignUp_Validation(t *testing.T) {
	router, _ := setupRecordsTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Email:    "not-an-email",
		Password: "long-enough",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Email:    "short@example.com",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordsHandler_CrewsRequireToken(t *testing.T) {
	router, repo := setupRecordsTest(t)
	repo.SeedMaintenanceCrews([]*videoingest.MaintenanceCrew{
		{ID: 1, SRI: "00000001__", StartMilepost: 0, EndMilepost: 4.2, CrewType: "pothole", CrewID: 7, LastUpdate: time.Now()},
	})

	// No token: rejected.
	w := doJSON(t, router, http.MethodGet, "/api/v1/records/crews", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Sign up to obtain a token, then retry.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Email:    "crew@example.com",
		Password: "long-enough",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/crews", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var crews []videoingest.MaintenanceCrew
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crews))
	require.Len(t, crews, 1)
	assert.Equal(t, "00000001__", crews[0].SRI)
	assert.Equal(t, 7, crews[0].CrewID)
}

func TestRecordsHandler_SegmentsArePublic(t *testing.T) {
	router, repo := setupRecordsTest(t)
	repo.SeedRoadSegments([]*videoingest.RoadSegment{
		{ID: 1, SRI: "00000001__", Name: "Route 1", Direction: "N", LastUpdate: time.Now()},
		{ID: 2, SRI: "00000002__", Name: "Route 9", Direction: "S", LastUpdate: time.Now().Add(time.Hour)},
	})

	w := doJSON(t, router, http.MethodGet, "/api/v1/records/segments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var segments []videoingest.RoadSegment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &segments))
	require.Len(t, segments, 2)
	// Most recently updated first.
	assert.Equal(t, "Route 9", segments[0].Name)

	w = doJSON(t, router, http.MethodGet, "/api/v1/records/segments?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	segments = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &segments))
	assert.Len(t, segments, 1)
}
