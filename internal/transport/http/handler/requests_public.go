package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-registrar-portal/internal/application/gate"
	"github.com/go-registrar-portal/internal/application/request"
	"github.com/go-registrar-portal/internal/domain"
)

// PublicRequestHandler serves the requester-facing flow: gated submission,
// the open tracking view, the OTP-gated full detail, and the dashboard list.
type PublicRequestHandler struct {
	requests request.Service
	gate     gate.Service
}

func NewPublicRequestHandler(requestSvc request.Service, gateSvc gate.Service) *PublicRequestHandler {
	return &PublicRequestHandler{requests: requestSvc, gate: gateSvc}
}

// TrackView is the reduced shape shown without OTP verification.
type TrackView struct {
	TrackingID              string     `json:"tracking_id"`
	Status                  string     `json:"status"`
	DocumentType            string     `json:"document_type,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	EstimatedCompletionDate time.Time  `json:"estimated_completion_date"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`
}

// DetailView adds requester identity and history, shown only behind the gate.
type DetailView struct {
	Request *domain.DocumentRequest `json:"request"`
	Logs    []domain.RequestLog     `json:"logs"`
}

// Submit creates a document request. The caller must hold a valid gate
// marker for the request's email address.
func (h *PublicRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.requireGate(w, r, in.Email) {
		return
	}
	dr, err := h.requests.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	// the marker is spent: a second submission needs a fresh OTP
	_ = h.gate.Clear(r.Context(), r.Header.Get(VerificationTokenHeader))
	writeJSON(w, http.StatusCreated, dr)
}

// Track is the open status view keyed by tracking ID. No OTP required, so
// only non-identifying fields are returned.
func (h *PublicRequestHandler) Track(w http.ResponseWriter, r *http.Request) {
	dr, err := h.requests.GetByTrackingID(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		httpError(w, err)
		return
	}
	view := TrackView{
		TrackingID:              dr.TrackingID,
		Status:                  dr.Status,
		CreatedAt:               dr.CreatedAt,
		EstimatedCompletionDate: dr.EstimatedCompletionDate,
		CompletedAt:             dr.CompletedAt,
	}
	if dr.DocumentType != nil {
		view.DocumentType = dr.DocumentType.Name
	}
	writeJSON(w, http.StatusOK, view)
}

// TrackingDetail returns the full request plus its history. The gate marker
// must belong to the email the request was filed under.
func (h *PublicRequestHandler) TrackingDetail(w http.ResponseWriter, r *http.Request) {
	dr, err := h.requests.GetByTrackingID(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		httpError(w, err)
		return
	}
	if !h.requireGate(w, r, dr.Email) {
		return
	}
	logs, err := h.requests.Logs(r.Context(), dr.RequestID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailView{Request: dr, Logs: logs})
}

// Dashboard lists every request filed under the gate marker's email.
func (h *PublicRequestHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	status, v, err := h.gate.Check(r.Context(), r.Header.Get(VerificationTokenHeader), "")
	if err != nil {
		httpError(w, err)
		return
	}
	if status != domain.GateVerified {
		writeError(w, http.StatusUnauthorized, "verification "+status.String())
		return
	}
	list, err := h.requests.ListByEmail(r.Context(), v.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: list})
}

// requireGate enforces a valid, unexpired marker for the given email.
func (h *PublicRequestHandler) requireGate(w http.ResponseWriter, r *http.Request, email string) bool {
	status, _, err := h.gate.Check(r.Context(), r.Header.Get(VerificationTokenHeader), email)
	if err != nil {
		httpError(w, err)
		return false
	}
	if status != domain.GateVerified {
		writeError(w, http.StatusUnauthorized, "verification "+status.String())
		return false
	}
	return true
}
