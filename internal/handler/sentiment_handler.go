package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamiq/internal/middleware"
	"teamiq/internal/model"
	"teamiq/internal/service"
	"teamiq/pkg/apierror"
)

type SentimentHandler struct {
	service *service.SentimentService
}

func NewSentimentHandler(service *service.SentimentService) *SentimentHandler {
	return &SentimentHandler{service: service}
}

// Ingest accepts one chat message for the authenticated user. The author is
// always the caller; there is no ingesting on someone else's behalf.
func (h *SentimentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.IngestMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	author := model.AuthUser{
		ID:       claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
	}

	msg, err := h.service.Ingest(r.Context(), author, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, msg, nil)
}

// UserSummary is gated to oversight roles in the router, with one extension
// here: everyone may read their own summary.
func (h *SentimentHandler) UserSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}
	if claims.UserID != userID && !model.ElevatedRole(claims.Role) {
		writeError(w, model.ErrForbidden)
		return
	}

	summary, err := h.service.UserSummary(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, summary, nil)
}

func (h *SentimentHandler) TeamSummary(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	if teamID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "team id is required", "id", http.StatusBadRequest))
		return
	}

	summary, err := h.service.TeamSummary(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, summary, nil)
}

func (h *SentimentHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, alerts, nil)
}
