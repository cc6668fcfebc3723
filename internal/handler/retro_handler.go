package handler

import (
	"encoding/json"
	"net/http"

	"teamiq/internal/middleware"
	"teamiq/internal/model"
	"teamiq/internal/service"
	"teamiq/pkg/apierror"
)

type RetroHandler struct {
	service *service.RetroService
}

func NewRetroHandler(service *service.RetroService) *RetroHandler {
	return &RetroHandler{service: service}
}

func (h *RetroHandler) Generate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.GenerateRetroRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.TeamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team_id is required", "team_id", http.StatusBadRequest))
		return
	}

	retro, err := h.service.Generate(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, retro, nil)
}

func (h *RetroHandler) Recent(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team_id is required", "team_id", http.StatusBadRequest))
		return
	}
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 10)

	retros, err := h.service.Recent(r.Context(), teamID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, retros, nil)
}
