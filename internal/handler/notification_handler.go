package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teamiq/internal/event"
	"teamiq/internal/middleware"
	"teamiq/internal/model"
	"teamiq/internal/service"
	"teamiq/pkg/apierror"
)

// NotificationHandler only ever operates on the caller's own notifications;
// the user id always comes from the token, never from the URL.
type NotificationHandler struct {
	service *service.NotificationService
	bus     event.Bus
}

func NewNotificationHandler(service *service.NotificationService, bus event.Bus) *NotificationHandler {
	return &NotificationHandler{service: service, bus: bus}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 20)

	notifications, meta, err := h.service.List(r.Context(), claims.UserID, unreadOnly, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, notifications, &meta)
}

func (h *NotificationHandler) Count(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UnreadCount{Unread: count}, nil)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	notificationID := chi.URLParam(r, "id")
	if notificationID == "" {
		writeError(w, apierror.New("VALIDATION_ERROR", "notification id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.service.MarkRead(r.Context(), claims.UserID, notificationID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"read": true}, nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int64{"updated": updated}, nil)
}

// Stream pushes the caller's notifications over server-sent events as they
// are created. The route must stay outside the request-timeout group; a
// buffering timeout handler would never flush.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.New("STREAMING_UNSUPPORTED", "response writer cannot stream", "", http.StatusInternalServerError))
		return
	}

	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, open := <-events:
			if !open {
				return
			}
			if e.UserID != claims.UserID {
				continue
			}
			data, err := json.Marshal(e.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
			flusher.Flush()
		}
	}
}
