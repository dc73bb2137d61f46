package api

import (
	"encoding/json"
	"net/http"

	"github.com/imgforge/imgforge/internal/orchestrator"
	"github.com/imgforge/imgforge/internal/shared/apierror"
	"github.com/imgforge/imgforge/internal/shared/uuid"
)

// handleManifest serves the one-time manifest. Authentication is the nonce
// alone; every failure, including an unparsable id, is the same opaque 403.
func (s *Service) handleManifest(w http.ResponseWriter, r *http.Request) {
	buildID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.NewForbiddenError("").WriteJSON(w)
		return
	}

	payload, err := s.orch.RequestManifest(r.Context(), buildID, r.URL.Query().Get("nonce"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

type statusDetails struct {
	Note     string `json:"note,omitempty"`
	Progress string `json:"progress,omitempty"`
}

type statusRequest struct {
	Status  string        `json:"status"`
	Details statusDetails `json:"details"`
}

// handleStatus applies an agent status report authenticated by the build's
// control token. A missing or wrong token is answered like an unknown build.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	buildID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.NewNotFoundError("build").WriteJSON(w)
		return
	}

	token := r.Header.Get("X-Agent-Token")
	if token == "" {
		apierror.NewNotFoundError("build").WriteJSON(w)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.NewValidationError("invalid request body").WriteJSON(w)
		return
	}

	err = s.orch.ReportStatus(r.Context(), buildID, token, orchestrator.StatusReport{
		Status:   req.Status,
		Note:     req.Details.Note,
		Progress: req.Details.Progress,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
