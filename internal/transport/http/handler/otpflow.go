package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-registrar-portal/internal/application/gate"
	"github.com/go-registrar-portal/internal/application/notify"
	"github.com/go-registrar-portal/internal/application/otp"
	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/validate"
)

// VerificationTokenHeader carries the gate marker on gated public endpoints.
const VerificationTokenHeader = "X-Verification-Token"

// OtpFlowHandler implements the send/verify pair for one OTP purpose. The
// router mounts one instance per flow (request, tracking, dashboard).
type OtpFlowHandler struct {
	otp     otp.Service
	gate    gate.Service
	notify  notify.Service
	purpose string
	ttl     time.Duration
}

func NewOtpFlowHandler(otpSvc otp.Service, gateSvc gate.Service, notifySvc notify.Service, purpose string, ttl time.Duration) *OtpFlowHandler {
	return &OtpFlowHandler{otp: otpSvc, gate: gateSvc, notify: notifySvc, purpose: purpose, ttl: ttl}
}

func (h *OtpFlowHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, err := h.otp.Issue(r.Context(), req.Email, h.purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	h.notify.OtpCode(r.Context(), req.Email, h.purpose, code.Code, h.ttl)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *OtpFlowHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.otp.Verify(r.Context(), req.Email, req.Otp, h.purpose) {
		writeJSON(w, http.StatusUnprocessableEntity, VerifyEnvelope{
			Verified: false,
			Message:  "invalid or expired verification code",
		})
		return
	}
	token, err := h.gate.MarkVerified(r.Context(), req.Email, h.purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Verified: true, VerificationToken: token})
}
