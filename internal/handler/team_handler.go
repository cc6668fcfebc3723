package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamiq/internal/model"
	"teamiq/internal/service"
	"teamiq/pkg/apierror"
)

type TeamHandler struct {
	service *service.TeamService
}

func NewTeamHandler(service *service.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	team, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, team, nil)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
		return
	}

	team, err := h.service.Get(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, team, nil)
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)

	teams, meta, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, teams, &meta)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
		return
	}

	var payload model.UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	team, err := h.service.Update(r.Context(), teamID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, team, nil)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.service.Delete(r.Context(), teamID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
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

	if err := h.service.AddMember(r.Context(), teamID, payload.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]bool{"added": true}, nil)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	if teamID == "" || userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id and user id are required", "", http.StatusBadRequest))
		return
	}

	if err := h.service.RemoveMember(r.Context(), teamID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"removed": true}, nil)
}

func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
		return
	}

	members, err := h.service.Members(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, members, nil)
}
