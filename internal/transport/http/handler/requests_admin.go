package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-registrar-portal/internal/application/request"
	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/transport/http/middleware"
)

// AdminRequestHandler serves the staff side of the request lifecycle.
type AdminRequestHandler struct {
	svc request.Service
}

func NewAdminRequestHandler(svc request.Service) *AdminRequestHandler {
	return &AdminRequestHandler{svc: svc}
}

// List pages through live requests, optionally narrowed by ?status= and ?search=.
func (h *AdminRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	f := domain.RequestFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	list, next, err := h.svc.ListPage(r.Context(), limit, r.URL.Query().Get("cursor"), f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: list, NextCursor: next})
}

// ListTrash pages through soft-deleted requests.
func (h *AdminRequestHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	list, next, err := h.svc.ListPage(r.Context(), limit, r.URL.Query().Get("cursor"), domain.RequestFilter{Deleted: true})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: list, NextCursor: next})
}

func (h *AdminRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	dr, err := h.svc.Get(r.Context(), requestID)
	if err != nil {
		httpError(w, err)
		return
	}
	logs, err := h.svc.Logs(r.Context(), requestID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailView{Request: dr, Logs: logs})
}

func (h *AdminRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dr, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in, actorID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (h *AdminRequestHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateNotesInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dr, err := h.svc.UpdateNotes(r.Context(), chi.URLParam(r, "id"), in, actorID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (h *AdminRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "request deleted"})
}

func (h *AdminRequestHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "request restored"})
}

func (h *AdminRequestHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in domain.BulkActionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Bulk(r.Context(), in, actorID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func actorID(r *http.Request) string {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.UserID
	}
	return ""
}

func parseLimit(r *http.Request, fallback int32) int32 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 200 {
		return fallback
	}
	return int32(n)
}
