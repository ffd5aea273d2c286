package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"memoria/internal/domain"
	"memoria/internal/middleware"
)

type stubJobService struct {
	submit func(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error)
	get    func(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error)
	list   func(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error)
}

func (s *stubJobService) Submit(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error) {
	return s.submit(ctx, ownerID, petID, input)
}

func (s *stubJobService) Get(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error) {
	return s.get(ctx, jobID, ownerID)
}

func (s *stubJobService) List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error) {
	return s.list(ctx, ownerID, filter)
}

func testRouter(svc *stubJobService) http.Handler {
	app := NewApp(svc, zerolog.New(io.Discard))
	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Post("/v1/pets/{pet_id}/videos", app.VideosGenerate)
	r.Get("/v1/videos", app.VideosList)
	r.Get("/v1/videos/{job_id}", app.VideoStatus)
	return r
}

func TestVideosGenerateAccepted(t *testing.T) {
	svc := &stubJobService{
		submit: func(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error) {
			if ownerID != "user-1" || petID != "pet-1" {
				t.Fatalf("unexpected submit args: %s %s", ownerID, petID)
			}
			var parsed struct {
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal(input, &parsed); err != nil || parsed.Prompt != "for rex" {
				t.Fatalf("input not forwarded: %s", input)
			}
			return &domain.VideoJob{ID: "job-1", PetID: petID, Status: domain.VideoJobStatusPending}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/pets/pet-1/videos", strings.NewReader(`{"prompt":"for rex"}`))
	req.Header.Set("X-Auth-Subject", "user-1")
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "pending" || body["progress"] != float64(0) {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["result_url"]; ok {
		t.Fatal("pending job must not expose result_url")
	}
}

func TestVideosGenerateRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/pets/pet-1/videos", strings.NewReader(`{"prompt":"x"}`))
	rec := httptest.NewRecorder()
	testRouter(&stubJobService{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVideosGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &stubJobService{
			submit: func(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error) {
				return nil, tc.err
			},
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/pets/pet-1/videos", strings.NewReader(`{"prompt":"x"}`))
		req.Header.Set("X-Auth-Subject", "user-1")
		rec := httptest.NewRecorder()
		testRouter(svc).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("error %v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestVideoStatusExposesOutcome(t *testing.T) {
	svc := &stubJobService{
		get: func(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error) {
			if jobID != "job-1" || ownerID != "user-1" {
				t.Fatalf("unexpected get args: %s %s", jobID, ownerID)
			}
			return &domain.VideoJob{
				ID:        "job-1",
				Status:    domain.VideoJobStatusCompleted,
				Progress:  100,
				ResultURL: "https://x/vid.mp4",
			}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/videos/job-1", nil)
	req.Header.Set("X-Auth-Subject", "user-1")
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["result_url"] != "https://x/vid.mp4" || body["progress"] != float64(100) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestVideosListForwardsFilter(t *testing.T) {
	svc := &stubJobService{
		list: func(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error) {
			if filter.Status != domain.VideoJobStatusFailed || filter.Limit != 10 || filter.Offset != 20 {
				t.Fatalf("filter not forwarded: %+v", filter)
			}
			return []domain.VideoJob{{ID: "job-9", Status: domain.VideoJobStatusFailed, ErrorReason: "timeout"}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/videos?status=failed&limit=10&offset=20", nil)
	req.Header.Set("X-Auth-Subject", "user-1")
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Items []map[string]any `json:"items"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Items) != 1 || body.Items[0]["error"] != "timeout" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
