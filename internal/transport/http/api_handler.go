package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// APIHandler serves the plain HTTP surface: a health probe and a
// redacted session snapshot for client bootstrap before the socket
// opens.
type APIHandler struct {
	service *app.SessionService
	log     *slog.Logger
}

func NewAPIHandler(service *app.SessionService, log *slog.Logger) *APIHandler {
	return &APIHandler{service: service, log: log}
}

func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /quiz/{id}", h.snapshot)
}

func (h *APIHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Snapshot(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrQuizNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Warn("snapshot failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.log.Warn("snapshot encode failed", "err", err)
	}
}
