package handler

import (
	"encoding/json"
	"net/http"

	"teamiq/internal/database"
	"teamiq/internal/model"
)

type HealthHandler struct {
	db      *database.DB
	version string
}

func NewHealthHandler(db *database.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Check answers 200 only when the database responds; load balancers key on
// the status code, humans on the body. Health skips the response envelope
// so probes stay trivial to parse.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := model.HealthStatus{Status: "ok", Version: h.version, Database: "up"}
	code := http.StatusOK

	if err := h.db.Health(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "down"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
