package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"memoria/internal/domain"
	"memoria/internal/infra"
	"memoria/internal/middleware"
)

// JobService is the orchestration surface the HTTP layer consumes.
type JobService interface {
	Submit(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error)
	Get(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error)
	List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error)
}

// App bundles the dependencies shared by HTTP handlers.
type App struct {
	Jobs   JobService
	Logger infra.Logger
}

func NewApp(jobs JobService, logger infra.Logger) *App {
	return &App{Jobs: jobs, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// domainError maps service errors onto HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "resource belongs to another user")
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.SubjectFromContext(r.Context())
}
