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

type TaskHandler struct {
	service    *service.TaskService
	allocation *service.AllocationService
}

func NewTaskHandler(service *service.TaskService, allocation *service.AllocationService) *TaskHandler {
	return &TaskHandler{service: service, allocation: allocation}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	task, err := h.service.Create(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, task, nil)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	task, assignments, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TaskDetail{Task: task, Assignments: assignments}, nil)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	status := r.URL.Query().Get("status")
	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)

	tasks, meta, err := h.service.List(r.Context(), projectID, status, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tasks, &meta)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	var payload model.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	task, err := h.service.Update(r.Context(), taskID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task, nil)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.service.Delete(r.Context(), taskID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION_ERROR", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.UserID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "user_id is required", "user_id", http.StatusBadRequest))
		return
	}

	assignment, err := h.service.Assign(r.Context(), taskID, payload.UserID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, assignment, nil)
}

// Recommend scores candidates without assigning anyone; Allocate commits
// the top candidate as an assignment.
func (h *TaskHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	result, err := h.allocation.Recommend(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *TaskHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "task id is required", "id", http.StatusBadRequest))
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	result, err := h.allocation.Allocate(r.Context(), taskID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, result, nil)
}
