package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamiq/internal/model"
	"teamiq/internal/service"
	"teamiq/pkg/apierror"
)

type ProjectHandler struct {
	service *service.ProjectService
}

func NewProjectHandler(service *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	project, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, project, nil)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "project id is required", "id", http.StatusBadRequest))
		return
	}

	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, project, nil)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	teamID := r.URL.Query().Get("team_id")
	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)

	projects, meta, err := h.service.List(r.Context(), status, teamID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, projects, &meta)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "project id is required", "id", http.StatusBadRequest))
		return
	}

	var payload model.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	project, err := h.service.Update(r.Context(), projectID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, project, nil)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "project id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.service.Delete(r.Context(), projectID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "project id is required", "id", http.StatusBadRequest))
		return
	}

	var payload model.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.UserID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user_id is required", "user_id", http.StatusBadRequest))
		return
	}

	if err := h.service.AddMember(r.Context(), projectID, payload.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]bool{"added": true}, nil)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	if projectID == "" || userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "project id and user id are required", "", http.StatusBadRequest))
		return
	}

	if err := h.service.RemoveMember(r.Context(), projectID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"removed": true}, nil)
}
