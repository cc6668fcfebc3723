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

type SkillHandler struct {
	service *service.SkillService
}

func NewSkillHandler(service *service.SkillService) *SkillHandler {
	return &SkillHandler{service: service}
}

func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	skill, err := h.service.CreateSkill(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, skill, nil)
}

func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	skills, err := h.service.ListSkills(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, skills, nil)
}

func (h *SkillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "id")
	if skillID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "skill id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.service.DeleteSkill(r.Context(), skillID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *SkillHandler) UserSkills(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user id is required", "id", http.StatusBadRequest))
		return
	}

	skills, err := h.service.UserSkills(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, skills, nil)
}

// SetUserSkill lets users self-assess and oversight roles set anyone's
// level; the self case cannot be expressed as a router role gate.
func (h *SkillHandler) SetUserSkill(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

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

	var payload model.SetUserSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.SkillID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "skill_id is required", "skill_id", http.StatusBadRequest))
		return
	}

	if err := h.service.SetUserSkill(r.Context(), userID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"saved": true}, nil)
}

// RecordActivity ingests evidence counters from CI or VCS sync jobs; the
// numbers accumulate on the user/skill pair until a recalculation runs.
func (h *SkillHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user id is required", "id", http.StatusBadRequest))
		return
	}

	var payload model.RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.SkillID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "skill_id is required", "skill_id", http.StatusBadRequest))
		return
	}

	if err := h.service.RecordActivity(r.Context(), userID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"recorded": true}, nil)
}

func (h *SkillHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user id is required", "id", http.StatusBadRequest))
		return
	}

	skills, err := h.service.Recalculate(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, skills, nil)
}
