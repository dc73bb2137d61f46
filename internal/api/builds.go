package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/imgforge/imgforge/internal/database/queries"
	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/uuid"
	"github.com/imgforge/imgforge/internal/shared/zlog"
)

type storageDescriptor struct {
	Container string `json:"container"`
	Object    string `json:"object"`
	Account   string `json:"account,omitempty"`
}

type createBuildRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	IsPublic    bool              `json:"is_public,omitempty"`
	SourceURL   string            `json:"source_url"`
	Image       storageDescriptor `json:"image"`
	Log         storageDescriptor `json:"log"`
	Project     string            `json:"project,omitempty"`
	Networks    []string          `json:"networks,omitempty"`
}

type progressResponse struct {
	Current int32 `json:"current"`
	Total   int32 `json:"total"`
}

type buildResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	IsPublic      bool              `json:"is_public"`
	SourceURL     string            `json:"source_url"`
	Image         storageDescriptor `json:"image"`
	Log           storageDescriptor `json:"log"`
	Project       string            `json:"project,omitempty"`
	Networks      []string          `json:"networks,omitempty"`
	Status        string            `json:"status"`
	StatusDetails string            `json:"status_details,omitempty"`
	Progress      *progressResponse `json:"progress,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// toBuildResponse maps a build row to its owner-facing representation. The
// control token and manifest nonce never leave the service.
func toBuildResponse(b *queries.Build) buildResponse {
	resp := buildResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description.String,
		IsPublic:    b.IsPublic,
		SourceURL:   b.SourceUrl,
		Image: storageDescriptor{
			Container: b.ImageContainer,
			Object:    b.ImageObject,
			Account:   b.ImageAccount.String,
		},
		Log: storageDescriptor{
			Container: b.LogContainer,
			Object:    b.LogObject,
			Account:   b.LogAccount.String,
		},
		Project:       b.Project.String,
		Networks:      b.Networks,
		Status:        string(b.Status),
		StatusDetails: b.StatusDetails.String,
		CreatedAt:     b.CreatedAt.Time.UTC().Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Time.UTC().Format(time.RFC3339),
	}
	if b.ProgressCurrent.Valid && b.ProgressTotal.Valid {
		resp.Progress = &progressResponse{
			Current: b.ProgressCurrent.Int32,
			Total:   b.ProgressTotal.Int32,
		}
	}
	return resp
}

// handleCreateBuild accepts a new build and returns 202: provisioning
// happens asynchronously once a worker picks up the insert.
func (s *Service) handleCreateBuild(w http.ResponseWriter, r *http.Request, user *queries.User) {
	var req createBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.NewValidationError("invalid request body").WriteJSON(w)
		return
	}

	build, err := s.orch.CreateBuild(r.Context(), user.ID, orchestrator.CreateBuildInput{
		Name:           req.Name,
		Description:    req.Description,
		IsPublic:       req.IsPublic,
		SourceURL:      req.SourceURL,
		ImageContainer: req.Image.Container,
		ImageObject:    req.Image.Object,
		ImageAccount:   req.Image.Account,
		LogContainer:   req.Log.Container,
		LogObject:      req.Log.Object,
		LogAccount:     req.Log.Account,
		Project:        req.Project,
		Networks:       req.Networks,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toBuildResponse(build))
}

func (s *Service) handleListBuilds(w http.ResponseWriter, r *http.Request, user *queries.User) {
	builds, err := s.orch.ListBuilds(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := make([]buildResponse, 0, len(builds))
	for _, b := range builds {
		resp = append(resp, toBuildResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"builds": resp})
}

func (s *Service) handleGetBuild(w http.ResponseWriter, r *http.Request, user *queries.User) {
	buildID, ok := parseBuildID(w, r)
	if !ok {
		return
	}

	build, err := s.orch.GetBuild(r.Context(), user.ID, buildID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBuildResponse(build))
}

func (s *Service) handleCancelBuild(w http.ResponseWriter, r *http.Request, user *queries.User) {
	buildID, ok := parseBuildID(w, r)
	if !ok {
		return
	}

	build, err := s.orch.CancelBuild(r.Context(), user.ID, buildID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBuildResponse(build))
}

func (s *Service) handleDeleteBuild(w http.ResponseWriter, r *http.Request, user *queries.User) {
	buildID, ok := parseBuildID(w, r)
	if !ok {
		return
	}

	if err := s.orch.DeleteBuild(r.Context(), user.ID, buildID); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseBuildID reads the {id} path segment. An unparsable id is answered
// like an unknown build.
func parseBuildID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.NewNotFoundError("build").WriteJSON(w)
		return uuid.Nil(), false
	}
	return id, true
}

// handleError logs unexpected failures and writes the API error shape
func (s *Service) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		zlog.From(r.Context()).Error("request failed", "error", err)
	}
	apierror.HandleError(w, err)
}
