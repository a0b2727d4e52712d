package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-registrar-portal/internal/application/doctype"
	"github.com/go-registrar-portal/internal/domain"
)

// DocTypeHandler handles document type endpoints. Listing active types is
// public; everything else is staff-only.
type DocTypeHandler struct {
	svc doctype.Service
}

func NewDocTypeHandler(svc doctype.Service) *DocTypeHandler { return &DocTypeHandler{svc: svc} }

// ListActive serves the public list of requestable documents.
func (h *DocTypeHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListActive(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *DocTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *DocTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	dt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dt)
}

func (h *DocTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.DocumentTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dt, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dt)
}

func (h *DocTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.DocumentTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dt, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dt)
}

func (h *DocTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "document type deleted"})
}
