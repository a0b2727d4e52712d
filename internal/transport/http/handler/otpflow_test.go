package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-registrar-portal/internal/application/request"
	"github.com/go-registrar-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockOtpSvc struct{ mock.Mock }

func (m *mockOtpSvc) Issue(ctx context.Context, email, purpose string) (*domain.OtpCode, error) {
	args := m.Called(ctx, email, purpose)
	if c, _ := args.Get(0).(*domain.OtpCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpSvc) Verify(ctx context.Context, email, code, purpose string) bool {
	return m.Called(ctx, email, code, purpose).Bool(0)
}

type mockGateSvc struct{ mock.Mock }

func (m *mockGateSvc) MarkVerified(ctx context.Context, email, purpose string) (string, error) {
	args := m.Called(ctx, email, purpose)
	return args.String(0), args.Error(1)
}

func (m *mockGateSvc) Check(ctx context.Context, tok, email string) (domain.GateStatus, *domain.VerificationSession, error) {
	args := m.Called(ctx, tok, email)
	v, _ := args.Get(1).(*domain.VerificationSession)
	return args.Get(0).(domain.GateStatus), v, args.Error(2)
}

func (m *mockGateSvc) Clear(ctx context.Context, tok string) error {
	return m.Called(ctx, tok).Error(0)
}

type mockNotifySvc struct{ mock.Mock }

func (m *mockNotifySvc) OtpCode(ctx context.Context, email, purpose, code string, ttl time.Duration) {
	m.Called(ctx, email, purpose, code, ttl)
}

func (m *mockNotifySvc) RequestSubmitted(ctx context.Context, dr *domain.DocumentRequest) {
	m.Called(ctx, dr)
}

func (m *mockNotifySvc) StatusUpdated(ctx context.Context, dr *domain.DocumentRequest, oldStatus string) {
	m.Called(ctx, dr, oldStatus)
}

type mockRequestSvc struct{ mock.Mock }

func (m *mockRequestSvc) Create(ctx context.Context, in domain.CreateRequestInput) (*domain.DocumentRequest, error) {
	args := m.Called(ctx, in)
	if dr, _ := args.Get(0).(*domain.DocumentRequest); dr != nil {
		return dr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) Get(ctx context.Context, requestID string) (*domain.DocumentRequest, error) {
	args := m.Called(ctx, requestID)
	if dr, _ := args.Get(0).(*domain.DocumentRequest); dr != nil {
		return dr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) GetByTrackingID(ctx context.Context, trackingID string) (*domain.DocumentRequest, error) {
	args := m.Called(ctx, trackingID)
	if dr, _ := args.Get(0).(*domain.DocumentRequest); dr != nil {
		return dr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) ListByEmail(ctx context.Context, email string) ([]domain.DocumentRequest, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.DocumentRequest), args.Error(1)
}

func (m *mockRequestSvc) ListPage(ctx context.Context, limit int32, cursor string, f domain.RequestFilter) ([]domain.DocumentRequest, string, error) {
	args := m.Called(ctx, limit, cursor, f)
	return args.Get(0).([]domain.DocumentRequest), args.String(1), args.Error(2)
}

func (m *mockRequestSvc) Logs(ctx context.Context, requestID string) ([]domain.RequestLog, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.RequestLog), args.Error(1)
}

func (m *mockRequestSvc) UpdateStatus(ctx context.Context, requestID string, in domain.UpdateStatusInput, actorID string) (*domain.DocumentRequest, error) {
	args := m.Called(ctx, requestID, in, actorID)
	if dr, _ := args.Get(0).(*domain.DocumentRequest); dr != nil {
		return dr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) UpdateNotes(ctx context.Context, requestID string, in domain.UpdateNotesInput, actorID string) (*domain.DocumentRequest, error) {
	args := m.Called(ctx, requestID, in, actorID)
	if dr, _ := args.Get(0).(*domain.DocumentRequest); dr != nil {
		return dr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRequestSvc) Delete(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *mockRequestSvc) Restore(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *mockRequestSvc) Bulk(ctx context.Context, in domain.BulkActionInput, actorID string) (*request.BulkResult, error) {
	args := m.Called(ctx, in, actorID)
	if res, _ := args.Get(0).(*request.BulkResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newOtpFlow(otpSvc *mockOtpSvc, gateSvc *mockGateSvc, notifySvc *mockNotifySvc) *OtpFlowHandler {
	return NewOtpFlowHandler(otpSvc, gateSvc, notifySvc, domain.OtpPurposeRequest, 10*time.Minute)
}

func jsonReq(method, target string, v interface{}) *http.Request {
	body, _ := json.Marshal(v)
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func submitBody() domain.CreateRequestInput {
	return domain.CreateRequestInput{
		Email:          "juan@example.com",
		FirstName:      "Juan",
		LastName:       "Dela Cruz",
		LRN:            "123456789012",
		GradeLevel:     "Grade 12",
		Section:        "Rizal",
		SchoolYear:     "2023-2024",
		DocumentTypeID: "dt1",
		Purpose:        "college application",
		Signature:      "data:image/png;base64,aGVsbG8=",
	}
}

// --- SendOtp tests ---

func TestSendOtp_InvalidBody(t *testing.T) {
	h := newOtpFlow(&mockOtpSvc{}, &mockGateSvc{}, &mockNotifySvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/requests/send-otp", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.SendOtp(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendOtp_InvalidEmail(t *testing.T) {
	h := newOtpFlow(&mockOtpSvc{}, &mockGateSvc{}, &mockNotifySvc{})
	r := jsonReq(http.MethodPost, "/v1/requests/send-otp", domain.SendOtpRequest{Email: "not-an-email"})
	rr := httptest.NewRecorder()
	h.SendOtp(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendOtp_HappyPath(t *testing.T) {
	otpSvc := &mockOtpSvc{}
	notifySvc := &mockNotifySvc{}
	code := &domain.OtpCode{Email: "juan@example.com", Code: "123456"}
	otpSvc.On("Issue", mock.Anything, "juan@example.com", domain.OtpPurposeRequest).Return(code, nil)
	notifySvc.On("OtpCode", mock.Anything, "juan@example.com", domain.OtpPurposeRequest, "123456", 10*time.Minute).Return()
	h := newOtpFlow(otpSvc, &mockGateSvc{}, notifySvc)

	r := jsonReq(http.MethodPost, "/v1/requests/send-otp", domain.SendOtpRequest{Email: "juan@example.com"})
	rr := httptest.NewRecorder()
	h.SendOtp(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	// the code itself must never appear in the HTTP response
	assert.NotContains(t, rr.Body.String(), "123456")
	otpSvc.AssertExpectations(t)
	notifySvc.AssertExpectations(t)
}

// --- VerifyOtp tests ---

func TestVerifyOtp_WrongCode(t *testing.T) {
	otpSvc := &mockOtpSvc{}
	otpSvc.On("Verify", mock.Anything, "juan@example.com", "000000", domain.OtpPurposeRequest).Return(false)
	h := newOtpFlow(otpSvc, &mockGateSvc{}, &mockNotifySvc{})

	r := jsonReq(http.MethodPost, "/v1/requests/verify-otp", domain.VerifyOtpRequest{Email: "juan@example.com", Otp: "000000"})
	rr := httptest.NewRecorder()
	h.VerifyOtp(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp VerifyEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Verified)
	assert.Empty(t, resp.VerificationToken)
}

func TestVerifyOtp_HappyPath_ReturnsGateToken(t *testing.T) {
	otpSvc := &mockOtpSvc{}
	gateSvc := &mockGateSvc{}
	otpSvc.On("Verify", mock.Anything, "juan@example.com", "123456", domain.OtpPurposeRequest).Return(true)
	gateSvc.On("MarkVerified", mock.Anything, "juan@example.com", domain.OtpPurposeRequest).Return("tok-abc", nil)
	h := newOtpFlow(otpSvc, gateSvc, &mockNotifySvc{})

	r := jsonReq(http.MethodPost, "/v1/requests/verify-otp", domain.VerifyOtpRequest{Email: "juan@example.com", Otp: "123456"})
	rr := httptest.NewRecorder()
	h.VerifyOtp(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp VerifyEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Verified)
	assert.Equal(t, "tok-abc", resp.VerificationToken)
	gateSvc.AssertExpectations(t)
}

// --- Submit tests ---

func TestSubmit_NoGateMarker(t *testing.T) {
	gateSvc := &mockGateSvc{}
	gateSvc.On("Check", mock.Anything, "", "juan@example.com").Return(domain.GateNotVerified, nil, nil)
	h := NewPublicRequestHandler(&mockRequestSvc{}, gateSvc)

	r := jsonReq(http.MethodPost, "/v1/requests", submitBody())
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubmit_ExpiredGateMarker(t *testing.T) {
	gateSvc := &mockGateSvc{}
	gateSvc.On("Check", mock.Anything, "tok-old", "juan@example.com").Return(domain.GateExpired, nil, nil)
	h := NewPublicRequestHandler(&mockRequestSvc{}, gateSvc)

	r := jsonReq(http.MethodPost, "/v1/requests", submitBody())
	r.Header.Set(VerificationTokenHeader, "tok-old")
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "expired")
}

func TestSubmit_HappyPath_ConsumesMarker(t *testing.T) {
	gateSvc := &mockGateSvc{}
	requestSvc := &mockRequestSvc{}
	v := &domain.VerificationSession{Email: "juan@example.com"}
	gateSvc.On("Check", mock.Anything, "tok-ok", "juan@example.com").Return(domain.GateVerified, v, nil)
	gateSvc.On("Clear", mock.Anything, "tok-ok").Return(nil)
	dr := &domain.DocumentRequest{RequestID: "r1", TrackingID: "BNHS-ABCD2345", Status: domain.StatusPending}
	requestSvc.On("Create", mock.Anything, mock.Anything).Return(dr, nil)
	h := NewPublicRequestHandler(requestSvc, gateSvc)

	r := jsonReq(http.MethodPost, "/v1/requests", submitBody())
	r.Header.Set(VerificationTokenHeader, "tok-ok")
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "BNHS-ABCD2345")
	gateSvc.AssertExpectations(t)
	requestSvc.AssertExpectations(t)
}

func TestSubmit_Duplicate_Conflict(t *testing.T) {
	gateSvc := &mockGateSvc{}
	requestSvc := &mockRequestSvc{}
	v := &domain.VerificationSession{Email: "juan@example.com"}
	gateSvc.On("Check", mock.Anything, "tok-ok", "juan@example.com").Return(domain.GateVerified, v, nil)
	requestSvc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewPublicRequestHandler(requestSvc, gateSvc)

	r := jsonReq(http.MethodPost, "/v1/requests", submitBody())
	r.Header.Set(VerificationTokenHeader, "tok-ok")
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
	// a failed submission must not spend the marker
	gateSvc.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

// --- Track tests ---

func TestTrack_LimitedFields(t *testing.T) {
	requestSvc := &mockRequestSvc{}
	dr := &domain.DocumentRequest{
		RequestID:  "r1",
		TrackingID: "BNHS-ABCD2345",
		Status:     domain.StatusProcessing,
		Email:      "juan@example.com",
		FirstName:  "Juan",
	}
	requestSvc.On("GetByTrackingID", mock.Anything, "BNHS-ABCD2345").Return(dr, nil)
	h := NewPublicRequestHandler(requestSvc, &mockGateSvc{})

	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/requests/track/BNHS-ABCD2345", nil), "trackingID", "BNHS-ABCD2345")
	rr := httptest.NewRecorder()
	h.Track(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "BNHS-ABCD2345", resp["tracking_id"])
	_, hasEmail := resp["email"]
	assert.False(t, hasEmail, "open tracking view must not expose the requester's email")
}

func TestTrack_UnknownTrackingID(t *testing.T) {
	requestSvc := &mockRequestSvc{}
	requestSvc.On("GetByTrackingID", mock.Anything, "BNHS-ZZZZ9999").Return(nil, domain.ErrNotFound)
	h := NewPublicRequestHandler(requestSvc, &mockGateSvc{})

	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/requests/track/BNHS-ZZZZ9999", nil), "trackingID", "BNHS-ZZZZ9999")
	rr := httptest.NewRecorder()
	h.Track(rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- TrackingDetail tests ---

func TestTrackingDetail_GateForDifferentEmail(t *testing.T) {
	requestSvc := &mockRequestSvc{}
	gateSvc := &mockGateSvc{}
	dr := &domain.DocumentRequest{RequestID: "r1", TrackingID: "BNHS-ABCD2345", Email: "juan@example.com"}
	requestSvc.On("GetByTrackingID", mock.Anything, "BNHS-ABCD2345").Return(dr, nil)
	gateSvc.On("Check", mock.Anything, "tok-other", "juan@example.com").Return(domain.GateNotVerified, nil, nil)
	h := NewPublicRequestHandler(requestSvc, gateSvc)

	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/tracking/BNHS-ABCD2345", nil), "trackingID", "BNHS-ABCD2345")
	r.Header.Set(VerificationTokenHeader, "tok-other")
	rr := httptest.NewRecorder()
	h.TrackingDetail(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTrackingDetail_HappyPath_IncludesLogs(t *testing.T) {
	requestSvc := &mockRequestSvc{}
	gateSvc := &mockGateSvc{}
	dr := &domain.DocumentRequest{RequestID: "r1", TrackingID: "BNHS-ABCD2345", Email: "juan@example.com"}
	v := &domain.VerificationSession{Email: "juan@example.com"}
	requestSvc.On("GetByTrackingID", mock.Anything, "BNHS-ABCD2345").Return(dr, nil)
	gateSvc.On("Check", mock.Anything, "tok-ok", "juan@example.com").Return(domain.GateVerified, v, nil)
	requestSvc.On("Logs", mock.Anything, "r1").Return([]domain.RequestLog{
		{LogID: "l1", DocumentRequestID: "r1", Action: domain.LogActionRequestCreated},
	}, nil)
	h := NewPublicRequestHandler(requestSvc, gateSvc)

	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/tracking/BNHS-ABCD2345", nil), "trackingID", "BNHS-ABCD2345")
	r.Header.Set(VerificationTokenHeader, "tok-ok")
	rr := httptest.NewRecorder()
	h.TrackingDetail(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp DetailView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "juan@example.com", resp.Request.Email)
	assert.Len(t, resp.Logs, 1)
}

// --- Dashboard tests ---

func TestDashboard_ListsMarkerEmail(t *testing.T) {
	requestSvc := &mockRequestSvc{}
	gateSvc := &mockGateSvc{}
	v := &domain.VerificationSession{Email: "juan@example.com"}
	gateSvc.On("Check", mock.Anything, "tok-ok", "").Return(domain.GateVerified, v, nil)
	requestSvc.On("ListByEmail", mock.Anything, "juan@example.com").Return([]domain.DocumentRequest{
		{RequestID: "r1"}, {RequestID: "r2"},
	}, nil)
	h := NewPublicRequestHandler(requestSvc, gateSvc)

	r := httptest.NewRequest(http.MethodGet, "/v1/dashboard/requests", nil)
	r.Header.Set(VerificationTokenHeader, "tok-ok")
	rr := httptest.NewRecorder()
	h.Dashboard(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	requestSvc.AssertExpectations(t)
}

func TestDashboard_NoMarker(t *testing.T) {
	gateSvc := &mockGateSvc{}
	gateSvc.On("Check", mock.Anything, "", "").Return(domain.GateNotVerified, nil, nil)
	h := NewPublicRequestHandler(&mockRequestSvc{}, gateSvc)

	r := httptest.NewRequest(http.MethodGet, "/v1/dashboard/requests", nil)
	rr := httptest.NewRecorder()
	h.Dashboard(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
