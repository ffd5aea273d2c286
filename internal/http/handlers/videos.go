package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"memoria/internal/domain"
)

type videoGenerateRequest struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

// VideosGenerate accepts a memorial video request for a pet and returns the
// pending job immediately; rendering happens in the background.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	petID := chi.URLParam(r, "pet_id")
	if petID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "pet_id required")
		return
	}
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	input, err := json.Marshal(req)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Jobs.Submit(r.Context(), userID, petID, input)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, jobJSON(job))
}

// VideoStatus returns the current state and progress of one job.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.Get(r.Context(), jobID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobJSON(job))
}

// VideosList returns the caller's jobs, optionally filtered by status.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	filter := domain.ListFilter{
		Status: domain.VideoJobStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	jobs, err := a.Jobs.List(r.Context(), userID, filter)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		items = append(items, jobJSON(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func jobJSON(job *domain.VideoJob) map[string]any {
	out := map[string]any{
		"id":         job.ID,
		"pet_id":     job.PetID,
		"status":     job.Status,
		"progress":   job.Progress,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.ResultURL != "" {
		out["result_url"] = job.ResultURL
	}
	if job.ErrorReason != "" {
		out["error"] = job.ErrorReason
	}
	if job.CompletedAt != nil {
		out["completed_at"] = job.CompletedAt
	}
	return out
}

func queryInt(r *http.Request, key string) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}
